package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
)

// SalesFilter narrows the rows read from the sales table. Zero values match everything.
type SalesFilter struct {
	Dataset string
	From    *time.Time
	To      *time.Time
	Stores  []string
}

// SalesRepository reads and stores point-of-sale rows.
type SalesRepository interface {
	ListSales(ctx context.Context, filter SalesFilter) ([]domain.SaleRecord, error)
	ListDatasets(ctx context.Context) ([]string, error)
	ReplaceDataset(ctx context.Context, dataset string, records []domain.SaleRecord) (int, error)
}
