package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-console-go/internal/domain"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestDiffCreation(t *testing.T) {
	next := []domain.Reservation{{ID: 1, Date: "2026-10-20", ReservationRaw: "Pendiente"}}
	got := DiffReservations(nil, next, now)
	require.Len(t, got, 1)
	assert.Equal(t, ActionCreated, got[0].Action)
	assert.EqualValues(t, 1, got[0].ID)
	assert.Equal(t, KindReservation, got[0].Kind)
	assert.Contains(t, got[0].Message, "2026-10-20")
	assert.Equal(t, now, got[0].Timestamp)
}

func TestDiffStatusTransition(t *testing.T) {
	prev := []domain.Reservation{{ID: 1, ReservationRaw: "Pendiente"}}
	next := []domain.Reservation{{ID: 1, ReservationRaw: "Confirmada"}}
	got := DiffReservations(prev, next, now)
	require.Len(t, got, 1)
	assert.Equal(t, ActionConfirmed, got[0].Action)
	assert.EqualValues(t, 1, got[0].ID)
	assert.Equal(t, "Pendiente", got[0].From)
	assert.Equal(t, "Confirmada", got[0].To)
}

func TestDiffNoChange(t *testing.T) {
	snap := []domain.Reservation{
		{ID: 1, ReservationRaw: "Pendiente"},
		{ID: 2, StatusRaw: "Confirmada"},
	}
	assert.Empty(t, DiffReservations(snap, snap, now))
}

func TestDiffClassification(t *testing.T) {
	assert.Equal(t, ActionCancelled, Classify("CANCELADA"))
	assert.Equal(t, ActionCompleted, Classify("Completada"))
	assert.Equal(t, ActionConfirmed, Classify("confirmed"))
	assert.Equal(t, ActionUpdated, Classify("En preparación"))
}

func TestDiffPreservesNextOrderAndSkipsMissingIDs(t *testing.T) {
	prev := []domain.Order{{ID: 2, Status: "Pendiente"}}
	next := []domain.Order{
		{ID: 3, Status: "Pendiente", TableNumberRaw: "4"},
		{ID: 0, Status: "Pendiente"},
		{ID: 2, Status: "Cancelado"},
	}
	got := DiffOrders(prev, next, now)
	require.Len(t, got, 2)
	assert.EqualValues(t, 3, got[0].ID)
	assert.Equal(t, ActionCreated, got[0].Action)
	assert.Contains(t, got[0].Message, "table 4")
	assert.EqualValues(t, 2, got[1].ID)
	assert.Equal(t, ActionCancelled, got[1].Action)
}

func TestDiffIgnoresRemovals(t *testing.T) {
	prev := []domain.Table{{ID: 1, Number: "1", Status: "Disponible"}}
	assert.Empty(t, DiffTables(prev, nil, now))
}
