// backend-go/internal/domain/models.go
package domain

import (
	"database/sql"
	"math"
	"strings"
)

// SaleColumns lists the columns every sales extract must carry, in canonical order.
var SaleColumns = []string{
	"Store Name",
	"Item_Code",
	"Description",
	"Category",
	"Section",
	"Sub-Department",
	"Supplier",
	"Quantity",
	"Total Sales",
	"RRP",
	"Date Of Sale",
}

// SaleRecord is one row of the point-of-sale extract, one (store, item, date).
// Numeric cells and the sale date may be missing in the source.
type SaleRecord struct {
	StoreName     string          `json:"store_name" db:"store_name"`
	ItemCode      string          `json:"item_code" db:"item_code"`
	Description   string          `json:"description" db:"description"`
	Category      string          `json:"category" db:"category"`
	Section       string          `json:"section" db:"section"`
	SubDepartment string          `json:"sub_department" db:"sub_department"`
	Supplier      string          `json:"supplier" db:"supplier"`
	Quantity      sql.NullFloat64 `json:"quantity" db:"quantity"`
	TotalSales    sql.NullFloat64 `json:"total_sales" db:"total_sales"`
	RRP           sql.NullFloat64 `json:"rrp" db:"rrp"`
	DateOfSale    sql.NullTime    `json:"date_of_sale" db:"date_of_sale"`
}

// MissingCells counts the empty cells of the record across SaleColumns.
func (r SaleRecord) MissingCells() int {
	missing := 0
	for _, s := range []string{r.StoreName, r.ItemCode, r.Description, r.Category, r.Section, r.SubDepartment, r.Supplier} {
		if strings.TrimSpace(s) == "" {
			missing++
		}
	}
	for _, v := range []sql.NullFloat64{r.Quantity, r.TotalSales, r.RRP} {
		if !v.Valid {
			missing++
		}
	}
	if !r.DateOfSale.Valid {
		missing++
	}
	return missing
}

// Qty returns the quantity, treating a missing cell as zero.
func (r SaleRecord) Qty() float64 {
	if !r.Quantity.Valid {
		return 0
	}
	return r.Quantity.Float64
}

// Sales returns the total sales, treating a missing cell as zero.
func (r SaleRecord) Sales() float64 {
	if !r.TotalSales.Valid {
		return 0
	}
	return r.TotalSales.Float64
}

// EnrichedSale is a SaleRecord with its derived pricing fields.
// UnitPrice and DiscountPct are NaN when they cannot be computed.
type EnrichedSale struct {
	SaleRecord
	UnitPrice   float64
	DiscountPct float64
	YearWeek    string
	DayOfWeek   string
	IsPromoDay  bool
	OnPromo     bool
}

func (s EnrichedSale) HasUnitPrice() bool {
	return !math.IsNaN(s.UnitPrice) && !math.IsInf(s.UnitPrice, 0)
}

func (s EnrichedSale) HasDiscount() bool {
	return !math.IsNaN(s.DiscountPct) && !math.IsInf(s.DiscountPct, 0)
}
