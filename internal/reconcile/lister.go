package reconcile

import (
	"context"
	"fmt"

	"github.com/teamjersey/order-intake/internal/sheet"
	"github.com/teamjersey/order-intake/pkg/models"
)

// ListOrders decodes every stored row into a flat view, legacy rows
// included. No grouping by order id happens here; search, grouping and
// pagination are presentation concerns over this sequence. An empty
// store yields an empty (non-nil) slice.
func (r *Reconciler) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	idx, err := sheet.EnsureHeader(ctx, r.table)
	if err != nil {
		return nil, err
	}

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	views := make([]models.OrderView, 0, len(rows))
	for _, row := range rows {
		views = append(views, sheet.Decode(idx, row))
	}
	return views, nil
}
