package db

import (
	"context"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const defaultTokenSlot = "default"

var ErrBadSeal = errors.New("db: sealed token does not open with this key")

// TokenStore keeps the API bearer token encrypted at rest.
type TokenStore struct {
	q    *Queries
	key  [32]byte
	slot string
}

// NewTokenStore needs a 32-byte key; shorter keys are rejected.
func NewTokenStore(q *Queries, key []byte) (*TokenStore, error) {
	if len(key) < 32 {
		return nil, errors.New("db: token key must be 32 bytes")
	}
	ts := &TokenStore{q: q, slot: defaultTokenSlot}
	copy(ts.key[:], key)
	return ts, nil
}

func (t *TokenStore) SaveToken(ctx context.Context, token string) error {
	if token == "" {
		return t.q.DeleteSealedToken(ctx, t.slot)
	}
	sealed, err := seal(&t.key, []byte(token))
	if err != nil {
		return err
	}
	return t.q.PutSealedToken(ctx, t.slot, sealed)
}

// LoadToken returns "" when nothing is stored. A token sealed under another
// key yields ErrBadSeal.
func (t *TokenStore) LoadToken(ctx context.Context) (string, error) {
	sealed, err := t.q.GetSealedToken(ctx, t.slot)
	if err != nil || sealed == nil {
		return "", err
	}
	plain, ok := open(&t.key, sealed)
	if !ok {
		return "", ErrBadSeal
	}
	return string(plain), nil
}

func (t *TokenStore) DeleteToken(ctx context.Context) error {
	return t.q.DeleteSealedToken(ctx, t.slot)
}

// seal prefixes the random nonce to the box.
func seal(key *[32]byte, msg []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], msg, &nonce, key), nil
}

func open(key *[32]byte, box []byte) ([]byte, bool) {
	if len(box) < 24+secretbox.Overhead {
		return nil, false
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	return secretbox.Open(nil, box[24:], &nonce, key)
}
