// Package report aggregates payments and orders into the sales dashboard.
package report

import (
	"sort"
	"strings"
	"time"

	"restaurant-console-go/internal/domain"
)

const (
	daysWindow   = 7
	monthsWindow = 6
	topProducts  = 5

	unknownProduct = "Unknown product"
)

type DayTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

type MonthTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type ProductTotal struct {
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Total    float64 `json:"total"`
}

type Sales struct {
	TotalSales      float64        `json:"totalSales"`
	TodaySales      float64        `json:"todaySales"`
	TotalOrders     int            `json:"totalOrders"`
	TodayOrders     int            `json:"todayOrders"`
	AveragePerOrder float64        `json:"averagePerOrder"`
	ByDay           []DayTotal     `json:"byDay"`
	ByMonth         []MonthTotal   `json:"byMonth"`
	TopProducts     []ProductTotal `json:"topProducts"`
}

// entry is one dated amount, from a payment or an order.
type entry struct {
	day    time.Time
	ok     bool
	amount float64
}

// Build computes the dashboard in now's location. Payments are the source
// of revenue; when they add up to nothing the order totals stand in. Today's
// sales come from order totals only when there are no payments at all.
func Build(payments []domain.Payment, orders []domain.Order, now time.Time) Sales {
	loc := now.Location()
	today := dayOf(now)

	pays := make([]entry, 0, len(payments))
	for _, p := range payments {
		d, ok := parseDay(p.PaidAt, loc)
		pays = append(pays, entry{day: d, ok: ok, amount: p.Amount})
	}
	ords := make([]entry, 0, len(orders))
	for _, o := range orders {
		d, ok := parseDay(o.Date, loc)
		ords = append(ords, entry{day: d, ok: ok, amount: o.Total()})
	}

	s := Sales{TotalOrders: len(orders)}

	s.TotalSales = sum(pays)
	if s.TotalSales == 0 && len(orders) > 0 {
		s.TotalSales = sum(ords)
	}
	s.TodaySales = sumOn(pays, today)
	if len(payments) == 0 {
		s.TodaySales = sumOn(ords, today)
	}
	for _, e := range ords {
		if e.ok && e.day.Equal(today) {
			s.TodayOrders++
		}
	}
	if s.TotalOrders > 0 {
		s.AveragePerOrder = s.TotalSales / float64(s.TotalOrders)
	}

	series := ords
	if len(payments) > 0 {
		series = pays
	}
	s.ByDay = byDay(series, today)
	s.ByMonth = byMonth(series, today)
	s.TopProducts = rankProducts(orders)
	return s
}

func sum(es []entry) float64 {
	var t float64
	for _, e := range es {
		t += e.amount
	}
	return t
}

func sumOn(es []entry, day time.Time) float64 {
	var t float64
	for _, e := range es {
		if e.ok && e.day.Equal(day) {
			t += e.amount
		}
	}
	return t
}

func byDay(es []entry, today time.Time) []DayTotal {
	out := make([]DayTotal, daysWindow)
	idx := make(map[string]int, daysWindow)
	for i := 0; i < daysWindow; i++ {
		d := today.AddDate(0, 0, i-(daysWindow-1))
		key := d.Format(time.DateOnly)
		out[i] = DayTotal{Date: key}
		idx[key] = i
	}
	for _, e := range es {
		if !e.ok {
			continue
		}
		if i, ok := idx[e.day.Format(time.DateOnly)]; ok {
			out[i].Total += e.amount
		}
	}
	return out
}

func byMonth(es []entry, today time.Time) []MonthTotal {
	out := make([]MonthTotal, monthsWindow)
	idx := make(map[string]int, monthsWindow)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	for i := 0; i < monthsWindow; i++ {
		key := first.AddDate(0, i-(monthsWindow-1), 0).Format("2006-01")
		out[i] = MonthTotal{Month: key}
		idx[key] = i
	}
	for _, e := range es {
		if !e.ok {
			continue
		}
		if i, ok := idx[e.day.Format("2006-01")]; ok {
			out[i].Total += e.amount
		}
	}
	return out
}

// rankProducts sorts by revenue, then name so ties are stable.
func rankProducts(orders []domain.Order) []ProductTotal {
	agg := map[string]*ProductTotal{}
	for _, o := range orders {
		for _, l := range o.Lines {
			name := strings.TrimSpace(l.ProductName)
			if name == "" {
				name = unknownProduct
			}
			p := agg[name]
			if p == nil {
				p = &ProductTotal{Product: name}
				agg[name] = p
			}
			p.Quantity += l.Quantity
			p.Total += l.Subtotal
		}
	}
	out := make([]ProductTotal, 0, len(agg))
	for _, p := range agg {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Product < out[j].Product
	})
	if len(out) > topProducts {
		out = out[:topProducts]
	}
	return out
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseDay reads the calendar date at the start of s; the API sends both
// bare dates and timestamps.
func parseDay(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(time.DateOnly) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(time.DateOnly, s[:len(time.DateOnly)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
