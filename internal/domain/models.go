package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Label is a server string that some endpoints send as a JSON number
// (table numbers, for instance) and others as a string.
type Label string

func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = Label(n.String())
	return nil
}

func (l Label) String() string { return string(l) }

type Table struct {
	ID       int64  `json:"id"`
	Number   Label  `json:"numero"`
	Capacity int    `json:"capacidad"`
	Status   string `json:"estado"`
	StatusID int64  `json:"estadoId,omitempty"`
}

func (t Table) State() TableStatus { return ParseTableStatus(t.Status) }

type TableRequest struct {
	ID       int64 `json:"id,omitempty"`
	Number   int   `json:"numero"`
	Capacity int   `json:"capacidad"`
	StatusID int64 `json:"estadoId"`
}

type OrderLine struct {
	ID          int64   `json:"id"`
	ProductName string  `json:"nombreProducto"`
	Quantity    int     `json:"cantidad"`
	UnitPrice   float64 `json:"precioUnitario"`
	Subtotal    float64 `json:"totalDetalle"`
	OrderID     int64   `json:"pedidoId"`
	Status      string  `json:"estadoDetalle,omitempty"`
}

type Order struct {
	ID             int64       `json:"id"`
	Date           string      `json:"fechaPedido"`
	Time           string      `json:"horaPedido"`
	Status         string      `json:"estado"`
	EmployeeName   string      `json:"empleadoNombre,omitempty"`
	Employee       string      `json:"empleado,omitempty"`
	CustomerName   string      `json:"clienteNombre,omitempty"`
	TableNumberRaw Label       `json:"mesaNumero,omitempty"`
	TableLabel     string      `json:"numeroMesa,omitempty"`
	Lines          []OrderLine `json:"detalles,omitempty"`
	ServerTotal    *float64    `json:"total,omitempty"`
}

func (o Order) State() OrderStatus { return ParseOrderStatus(o.Status) }

// IsActive reports whether the order still holds its table: anything not
// paid and not cancelled, unknown labels included.
func (o Order) IsActive() bool {
	s := o.State()
	return s != OrderPaid && s != OrderCancelled
}

// TableNumber returns the table display number the order is tied to.
// Takeout orders have none.
func (o Order) TableNumber() (string, bool) {
	if n := strings.TrimSpace(string(o.TableNumberRaw)); n != "" {
		return n, true
	}
	lbl := strings.TrimSpace(o.TableLabel)
	if lbl == "" {
		return "", false
	}
	if f := strings.Fields(lbl); len(f) > 1 && strings.EqualFold(f[0], "mesa") {
		lbl = f[len(f)-1]
	}
	return lbl, true
}

// Total is the server-provided total, or the sum of line subtotals.
func (o Order) Total() float64 {
	if o.ServerTotal != nil {
		return *o.ServerTotal
	}
	var sum float64
	for _, l := range o.Lines {
		sum += l.Subtotal
	}
	return sum
}

// EmployeeDisplay folds the two employee fields the API uses.
func (o Order) EmployeeDisplay() string {
	if o.EmployeeName != "" {
		return o.EmployeeName
	}
	return o.Employee
}

type OrderLineRequest struct {
	ProductID int64  `json:"productoId"`
	Quantity  int    `json:"cantidad"`
	Notes     string `json:"observaciones,omitempty"`
}

type OrderRequest struct {
	CustomerID int64              `json:"clienteId,omitempty"`
	TableID    int64              `json:"mesaId"`
	EmployeeID int64              `json:"empleadoId"`
	Lines      []OrderLineRequest `json:"detalles"`
	Notes      string             `json:"observaciones,omitempty"`
}

type Reservation struct {
	ID             int64  `json:"id,omitempty"`
	Message        string `json:"mensaje,omitempty"`
	Date           string `json:"fechaReserva"`
	Time           string `json:"horaReserva"`
	PartySize      int    `json:"cantidadPersonas"`
	CustomerName   string `json:"clienteNombre,omitempty"`
	CustomerEmail  string `json:"correoCliente,omitempty"`
	CustomerPhone  string `json:"telefonoCliente,omitempty"`
	ReservationRaw string `json:"estadoReserva,omitempty"`
	StatusRaw      string `json:"estado,omitempty"`
	TableNumber    Label  `json:"mesaNumero,omitempty"`
	CustomerID     int64  `json:"clienteId,omitempty"`
}

// StatusLabel prefers estadoReserva over the estado alias.
func (r Reservation) StatusLabel() string {
	if r.ReservationRaw != "" {
		return r.ReservationRaw
	}
	return r.StatusRaw
}

func (r Reservation) State() ReservationStatus { return ParseReservationStatus(r.StatusLabel()) }

type ReservationRequest struct {
	Date      string `json:"fechaReserva"`
	Time      string `json:"horaReserva"`
	PartySize int    `json:"cantidadPersonas"`
	FirstName string `json:"nombreCliente"`
	LastName  string `json:"apellidoCliente"`
	Email     string `json:"correoCliente"`
	Phone     string `json:"telefonoCliente"`
}

type Availability struct {
	Available     bool   `json:"disponible"`
	Message       string `json:"mensaje"`
	TableNumber   Label  `json:"mesaNumero,omitempty"`
	TableCapacity int    `json:"capacidadMesa,omitempty"`
}

type Payment struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"pedidoId"`
	Amount       float64 `json:"monto"`
	Method       string  `json:"metodoPago"`
	PaidAt       string  `json:"fechaPago"`
	Notes        string  `json:"observaciones,omitempty"`
	TableLabel   string  `json:"numeroMesa,omitempty"`
	CustomerName string  `json:"nombreCliente,omitempty"`
}

type PaymentRequest struct {
	OrderID int64   `json:"pedidoId"`
	Amount  float64 `json:"monto"`
	Method  string  `json:"metodoPago"`
	Notes   string  `json:"observaciones,omitempty"`
}

type InvoiceItem struct {
	LineID    int64   `json:"detalleId"`
	Product   string  `json:"producto"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precioUnitario"`
	Total     float64 `json:"total"`
}

type Invoice struct {
	OrderID    int64         `json:"pedidoId"`
	TableLabel string        `json:"numeroMesa"`
	Waiter     string        `json:"mesero"`
	Date       string        `json:"fechaPedido"`
	Time       string        `json:"horaPedido"`
	Items      []InvoiceItem `json:"items"`
	Subtotal   float64       `json:"subtotal"`
	Taxes      float64       `json:"impuestos"`
	Tip        float64       `json:"propina"`
	Total      float64       `json:"total"`
}

// State is a catalog entry from /estados/*.
type State struct {
	ID          int64  `json:"id"`
	Description string `json:"descripcion"`
}

type Employee struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido,omitempty"`
	Email     string `json:"correo"`
	Phone     string `json:"telefono,omitempty"`
	Role      string `json:"rol,omitempty"`
	RoleID    int64  `json:"rolId,omitempty"`
	Password  string `json:"contrasenia,omitempty"`
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido,omitempty"`
	Email     string `json:"correo,omitempty"`
	Phone     string `json:"telefono,omitempty"`
}

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion,omitempty"`
	Price       float64 `json:"precio"`
	CategoryID  Label   `json:"categoriaId,omitempty"`
	Category    string  `json:"categoria,omitempty"`
	Status      string  `json:"estado,omitempty"`
	StatusID    int64   `json:"estadoId,omitempty"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contrasenia"`
}

type LoginResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

// FormatID is used for path building.
func FormatID(id int64) string { return strconv.FormatInt(id, 10) }
