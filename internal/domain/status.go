package domain

import "strings"

// The API sends states as free text ("En preparación", "PAGADO",
// "Cancelada"). Each Parse* maps a raw label onto a closed set; anything
// unrecognized becomes the Unknown variant.

var foldAccents = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"_", " ", "-", " ",
)

// NormalizeLabel lowercases, trims and strips Spanish accents.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(foldAccents.Replace(strings.ToLower(s))), " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type OrderStatus int

const (
	OrderUnknown OrderStatus = iota
	OrderPending
	OrderInPreparation
	OrderReady
	OrderDelivered
	OrderPaid
	OrderCancelled
)

var orderStatusNames = [...]string{
	OrderUnknown:       "UNKNOWN",
	OrderPending:       "PENDING",
	OrderInPreparation: "IN_PREPARATION",
	OrderReady:         "READY",
	OrderDelivered:     "DELIVERED",
	OrderPaid:          "PAID",
	OrderCancelled:     "CANCELLED",
}

func (s OrderStatus) String() string {
	if s < 0 || int(s) >= len(orderStatusNames) {
		return orderStatusNames[OrderUnknown]
	}
	return orderStatusNames[s]
}

// ParseOrderStatus checks terminal states first so "cancelado en
// preparación" style labels never read as active work.
func ParseOrderStatus(label string) OrderStatus {
	s := NormalizeLabel(label)
	switch {
	case s == "":
		return OrderUnknown
	case containsAny(s, "cancel", "anulad"):
		return OrderCancelled
	case containsAny(s, "pagad", "paid", "cobrad"):
		return OrderPaid
	case containsAny(s, "entregad", "delivered", "servid"):
		return OrderDelivered
	case containsAny(s, "listo", "lista", "ready", "preparado"):
		return OrderReady
	case containsAny(s, "prepar", "en proceso", "cocinando", "in progress"):
		return OrderInPreparation
	case containsAny(s, "pendiente", "pending", "nuevo", "recibido"):
		return OrderPending
	}
	return OrderUnknown
}

type TableStatus int

const (
	TableUnknown TableStatus = iota
	TableFree
	TableOccupied
	TableReserved
	TableMaintenance
)

var tableStatusNames = [...]string{
	TableUnknown:     "UNKNOWN",
	TableFree:        "FREE",
	TableOccupied:    "OCCUPIED",
	TableReserved:    "RESERVED",
	TableMaintenance: "MAINTENANCE",
}

func (s TableStatus) String() string {
	if s < 0 || int(s) >= len(tableStatusNames) {
		return tableStatusNames[TableUnknown]
	}
	return tableStatusNames[s]
}

func ParseTableStatus(label string) TableStatus {
	s := NormalizeLabel(label)
	switch {
	case s == "":
		return TableUnknown
	case containsAny(s, "ocupad", "occupied"):
		return TableOccupied
	case containsAny(s, "reservad", "reserved"):
		return TableReserved
	case containsAny(s, "mantenimiento", "maintenance", "fuera de servicio"):
		return TableMaintenance
	case containsAny(s, "disponible", "libre", "free", "available"):
		return TableFree
	}
	return TableUnknown
}

type ReservationStatus int

const (
	ReservationUnknown ReservationStatus = iota
	ReservationPending
	ReservationConfirmed
	ReservationCancelled
	ReservationCompleted
)

var reservationStatusNames = [...]string{
	ReservationUnknown:   "UNKNOWN",
	ReservationPending:   "PENDING",
	ReservationConfirmed: "CONFIRMED",
	ReservationCancelled: "CANCELLED",
	ReservationCompleted: "COMPLETED",
}

func (s ReservationStatus) String() string {
	if s < 0 || int(s) >= len(reservationStatusNames) {
		return reservationStatusNames[ReservationUnknown]
	}
	return reservationStatusNames[s]
}

func ParseReservationStatus(label string) ReservationStatus {
	s := NormalizeLabel(label)
	switch {
	case s == "":
		return ReservationUnknown
	case containsAny(s, "cancel"):
		return ReservationCancelled
	case containsAny(s, "complet", "finalizad"):
		return ReservationCompleted
	case containsAny(s, "confirm"):
		return ReservationConfirmed
	case containsAny(s, "pendiente", "pending"):
		return ReservationPending
	}
	return ReservationUnknown
}
