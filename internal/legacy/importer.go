// Package legacy imports ticket orders from the retired SQL Server system
// into the Railway backend. One connection per invocation, closed when the
// job finishes.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
)

type Backend interface {
	CreateTicketOrder(ctx context.Context, order railway.TicketOrder) (railway.TicketOrder, error)
}

type Importer struct {
	dsn     string
	backend Backend
	logger  *slog.Logger
}

func NewImporter(dsn string, backend Backend, logger *slog.Logger) *Importer {
	return &Importer{dsn: dsn, backend: backend, logger: logger}
}

type Report struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

const legacyOrdersQuery = `
SELECT order_no, event_ref, customer_name, customer_email,
       adult_qty, child_qty, family_qty, total_price, created_at
FROM legacy_ticket_orders
WHERE migrated = 0
ORDER BY created_at`

// Run streams unmigrated legacy rows into the backend. Row-level failures
// are counted and logged, not fatal; a connection or query failure is.
func (im *Importer) Run(ctx context.Context) (Report, error) {
	if im.dsn == "" {
		return Report{}, fmt.Errorf("legacy SQL Server DSN is not configured")
	}

	db, err := sql.Open("sqlserver", im.dsn)
	if err != nil {
		return Report{}, fmt.Errorf("opening legacy database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, legacyOrdersQuery)
	if err != nil {
		return Report{}, fmt.Errorf("querying legacy orders: %w", err)
	}
	defer rows.Close()

	var report Report
	for rows.Next() {
		var (
			orderNo, eventRef, name, email string
			adult, child, family           int
			total                          float64
			createdAt                      time.Time
		)
		if err := rows.Scan(&orderNo, &eventRef, &name, &email, &adult, &child, &family, &total, &createdAt); err != nil {
			report.Failed++
			im.logger.Error("scanning legacy order row", "error", err)
			continue
		}

		order := railway.TicketOrder{
			EventID:          eventRef,
			CustomerName:     name,
			CustomerEmail:    email,
			AdultQuantity:    adult,
			ChildQuantity:    child,
			FamilyQuantity:   family,
			Status:           railway.OrderStatusConfirmed,
			ConfirmationCode: orderNo,
			TotalPrice:       total,
			CreatedAt:        createdAt,
		}

		if _, err := im.backend.CreateTicketOrder(ctx, order); err != nil {
			report.Failed++
			im.logger.Error("importing legacy order", "order_no", orderNo, "error", err)
			continue
		}
		report.Imported++
	}

	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("reading legacy orders: %w", err)
	}

	im.logger.Info("legacy import finished", "imported", report.Imported, "failed", report.Failed)
	return report, nil
}
