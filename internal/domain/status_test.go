package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	cases := map[string]OrderStatus{
		"Pendiente":      OrderPending,
		"PENDIENTE":      OrderPending,
		"En preparación": OrderInPreparation,
		"en preparacion": OrderInPreparation,
		"EN_PREPARACION": OrderInPreparation,
		"Listo":          OrderReady,
		"Preparado":      OrderReady,
		"Entregado":      OrderDelivered,
		"Pagado":         OrderPaid,
		"PAGADO":         OrderPaid,
		"paid":           OrderPaid,
		"Cancelado":      OrderCancelled,
		"cancelled":      OrderCancelled,
		"":               OrderUnknown,
		"en espera de x": OrderUnknown,
	}
	for label, want := range cases {
		assert.Equal(t, want, ParseOrderStatus(label), "label %q", label)
	}
}

func TestParseTableStatus(t *testing.T) {
	assert.Equal(t, TableOccupied, ParseTableStatus("Ocupada"))
	assert.Equal(t, TableOccupied, ParseTableStatus("OCCUPIED"))
	assert.Equal(t, TableFree, ParseTableStatus("Disponible"))
	assert.Equal(t, TableFree, ParseTableStatus("libre"))
	assert.Equal(t, TableReserved, ParseTableStatus("Reservada"))
	assert.Equal(t, TableMaintenance, ParseTableStatus("En mantenimiento"))
	assert.Equal(t, TableUnknown, ParseTableStatus("???"))
}

func TestParseReservationStatus(t *testing.T) {
	assert.Equal(t, ReservationConfirmed, ParseReservationStatus("Confirmada"))
	assert.Equal(t, ReservationCancelled, ParseReservationStatus("CANCELADA"))
	assert.Equal(t, ReservationCompleted, ParseReservationStatus("completada"))
	assert.Equal(t, ReservationPending, ParseReservationStatus("Pendiente"))
	assert.Equal(t, "UNKNOWN", ReservationStatus(42).String())
}

func TestOrderIsActive(t *testing.T) {
	assert.True(t, Order{Status: "Pendiente"}.IsActive())
	assert.True(t, Order{Status: "Listo"}.IsActive())
	assert.True(t, Order{Status: "algo raro"}.IsActive())
	assert.False(t, Order{Status: "Pagado"}.IsActive())
	assert.False(t, Order{Status: "Cancelado"}.IsActive())
}

func TestOrderTableNumber(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"mesaNumero":5}`), &o))
	n, ok := o.TableNumber()
	assert.True(t, ok)
	assert.Equal(t, "5", n)

	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"numeroMesa":"Mesa 7"}`), &o))
	o.TableNumberRaw = ""
	n, ok = o.TableNumber()
	assert.True(t, ok)
	assert.Equal(t, "7", n)

	_, ok = Order{ID: 3}.TableNumber()
	assert.False(t, ok, "takeout order has no table")
}

func TestOrderTotal(t *testing.T) {
	o := Order{Lines: []OrderLine{{Subtotal: 10.5}, {Subtotal: 4.5}}}
	assert.InDelta(t, 15.0, o.Total(), 0.0001)

	server := 20.0
	o.ServerTotal = &server
	assert.InDelta(t, 20.0, o.Total(), 0.0001)
}

func TestLabelAcceptsNumbersAndStrings(t *testing.T) {
	var tables []Table
	require.NoError(t, json.Unmarshal([]byte(`[{"id":1,"numero":"5"},{"id":2,"numero":6},{"id":3,"numero":null}]`), &tables))
	assert.Equal(t, Label("5"), tables[0].Number)
	assert.Equal(t, Label("6"), tables[1].Number)
	assert.Equal(t, Label(""), tables[2].Number)
}
