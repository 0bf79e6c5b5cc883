package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const insertBatchSize = 500

// salesColumns maps the table columns to domain.SaleRecord db tags.
// Text columns are coalesced so NULLs scan into plain strings.
const salesColumns = `
	COALESCE(store_name, '') AS store_name,
	COALESCE(item_code, '') AS item_code,
	COALESCE(description, '') AS description,
	COALESCE(category, '') AS category,
	COALESCE(section, '') AS section,
	COALESCE(sub_department, '') AS sub_department,
	COALESCE(supplier, '') AS supplier,
	quantity,
	total_sales,
	rrp,
	date_of_sale`

type salesRepository struct {
	db    *DB
	table string
}

var _ repository.SalesRepository = (*salesRepository)(nil)

// NewSalesRepository reads from table, which must be a plain or schema-qualified identifier.
func NewSalesRepository(db *DB, table string) (repository.SalesRepository, error) {
	if table == "" {
		table = "sales"
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid sales table name %q", table)
	}
	return &salesRepository{db: db, table: table}, nil
}

func (r *salesRepository) ListSales(ctx context.Context, filter repository.SalesFilter) ([]domain.SaleRecord, error) {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query, args := buildSalesQuery(r.table, filter)
	var records []domain.SaleRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error listing sales: %w", err)
	}

	log.Debug().Str("table", r.table).Str("dataset", filter.Dataset).Int("rows", len(records)).Msg("sales loaded")
	return records, nil
}

func (r *salesRepository) ListDatasets(ctx context.Context) ([]string, error) {
	release, err := r.db.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := fmt.Sprintf(`SELECT DISTINCT dataset FROM %s WHERE dataset IS NOT NULL ORDER BY dataset`, r.table)
	var datasets []string
	if err := r.db.SelectContext(ctx, &datasets, query); err != nil {
		return nil, fmt.Errorf("error listing datasets: %w", err)
	}
	return datasets, nil
}

// ReplaceDataset deletes the rows of dataset and inserts records in one transaction.
func (r *salesRepository) ReplaceDataset(ctx context.Context, dataset string, records []domain.SaleRecord) (int, error) {
	if strings.TrimSpace(dataset) == "" {
		return 0, fmt.Errorf("dataset name is required")
	}

	inserted := 0
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE dataset = $1`, r.table), dataset); err != nil {
			return fmt.Errorf("failed to clear dataset %s: %w", dataset, err)
		}

		for start := 0; start < len(records); start += insertBatchSize {
			end := start + insertBatchSize
			if end > len(records) {
				end = len(records)
			}
			query, args := buildInsert(r.table, dataset, records[start:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert sales batch at row %d: %w", start, err)
			}
			inserted += end - start
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Str("table", r.table).Str("dataset", dataset).Int("rows", inserted).Msg("sales dataset replaced")
	return inserted, nil
}

func buildSalesQuery(table string, filter repository.SalesFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	argCounter := 1

	if filter.Dataset != "" {
		conditions = append(conditions, fmt.Sprintf("dataset = $%d", argCounter))
		args = append(args, filter.Dataset)
		argCounter++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date_of_sale >= $%d", argCounter))
		args = append(args, *filter.From)
		argCounter++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date_of_sale <= $%d", argCounter))
		args = append(args, *filter.To)
		argCounter++
	}
	if len(filter.Stores) > 0 {
		conditions = append(conditions, fmt.Sprintf("store_name = ANY($%d::text[])", argCounter))
		args = append(args, pq.Array(filter.Stores))
	}

	query := fmt.Sprintf("SELECT %s\nFROM %s", salesColumns, table)
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\nORDER BY store_name, item_code, date_of_sale"
	return query, args
}

func buildInsert(table, dataset string, records []domain.SaleRecord) (string, []interface{}) {
	const perRow = 12
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*perRow)
	for i, rec := range records {
		base := i * perRow
		ph := make([]string, perRow)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			dataset,
			rec.StoreName, rec.ItemCode, rec.Description, rec.Category, rec.Section, rec.SubDepartment, rec.Supplier,
			rec.Quantity, rec.TotalSales, rec.RRP, rec.DateOfSale,
		)
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		dataset, store_name, item_code, description, category, section, sub_department, supplier,
		quantity, total_sales, rrp, date_of_sale
	) VALUES %s`, table, strings.Join(placeholders, ", "))
	return query, args
}
