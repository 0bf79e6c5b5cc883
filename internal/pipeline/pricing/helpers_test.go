package pricing

import (
	"database/sql"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
)

const (
	bidco = "BIDCO AFRICA LIMITED"
	rival = "PWANI OIL PRODUCTS"
)

func num(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func day(y int, m time.Month, d int) sql.NullTime {
	return sql.NullTime{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// sale builds a complete record; callers blank fields to simulate missing cells.
func sale(store, item, supplier, section string, qty, total, rrp float64, date sql.NullTime) domain.SaleRecord {
	return domain.SaleRecord{
		StoreName:     store,
		ItemCode:      item,
		Description:   "item " + item,
		Category:      "Food",
		Section:       section,
		SubDepartment: "Grocery",
		Supplier:      supplier,
		Quantity:      num(qty),
		TotalSales:    num(total),
		RRP:           num(rrp),
		DateOfSale:    date,
	}
}

func ptr(v float64) *float64 { return &v }
