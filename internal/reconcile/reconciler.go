// Package reconcile keeps the flat row store consistent with the
// hierarchical order/items model: incoming items are matched to existing
// rows by id and either overwritten in place or appended, paid toggles
// touch exactly one cell, and deletes cascade by order id.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamjersey/order-intake/internal/pricing"
	"github.com/teamjersey/order-intake/internal/sheet"
	"github.com/teamjersey/order-intake/pkg/models"
)

var ErrNotFound = errors.New("order not found")

type Reconciler struct {
	table  sheet.Table
	logger *logrus.Logger
}

func New(table sheet.Table, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		table:  table,
		logger: logger,
	}
}

// BatchResult reports what one batch submission did to the store.
type BatchResult struct {
	Appended int
	Updated  int
	OrderID  string
}

// UpsertBatch writes every item of one order. Items whose id already has
// a row are overwritten in place (full-row replace); the rest are
// appended after the current end in batch order. Overwrites are applied
// before appends. Totals and unit prices are re-derived server-side
// whenever the submission left them unset.
func (r *Reconciler) UpsertBatch(ctx context.Context, order *models.Order) (*BatchResult, error) {
	idx, err := sheet.EnsureHeader(ctx, r.table)
	if err != nil {
		return nil, err
	}

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	posByID := indexByID(idx, rows)

	orderID := order.OrderID
	if orderID == "" {
		orderID = uuid.New().String()
	}
	timestamp := order.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	subtotal, deliveryFee, grandTotal := order.Subtotal, order.DeliveryFee, order.GrandTotal
	if subtotal == 0 && grandTotal == 0 {
		subtotal, deliveryFee, grandTotal = pricing.Totals(order)
	}

	var (
		appendRows []sheet.Row
		updated    int
	)
	for _, it := range order.Items {
		id := it.ID
		if id == "" {
			id = uuid.New().String()
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		unitPrice := it.UnitPrice
		if unitPrice <= 0 {
			unitPrice = pricing.UnitPrice(it)
		}
		lineTotal := it.LineTotal
		if lineTotal <= 0 {
			lineTotal = unitPrice * float64(qty)
		}
		paid := order.Paid
		if it.Paid != nil {
			paid = *it.Paid
		}

		row := sheet.Encode(idx, sheet.RowData{
			Timestamp:       timestamp.Format(time.RFC3339),
			BuyerName:       order.BuyerName,
			Number:          it.Number,
			Size:            it.Size,
			NameOnJersey:    it.NameOnJersey,
			IsLongSleeve:    it.IsLongSleeve,
			IsMuslimah:      it.IsMuslimah,
			Paid:            paid,
			ID:              id,
			Quantity:        qty,
			UnitPrice:       unitPrice,
			LineTotal:       lineTotal,
			OrderID:         orderID,
			Subtotal:        subtotal,
			DeliveryFee:     deliveryFee,
			GrandTotal:      grandTotal,
			Fulfillment:     string(order.Fulfillment),
			DeliveryAddress: order.DeliveryAddress,
			ContactPhone:    order.ContactPhone,
		})

		if pos, ok := posByID[id]; ok {
			if err := r.table.UpdateRow(ctx, pos, row); err != nil {
				return nil, fmt.Errorf("overwrite row for item %s: %w", id, err)
			}
			updated++
		} else {
			appendRows = append(appendRows, row)
		}
	}

	if len(appendRows) > 0 {
		if err := r.table.AppendRows(ctx, appendRows); err != nil {
			return nil, fmt.Errorf("append rows: %w", err)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"appended": len(appendRows),
		"updated":  updated,
	}).Info("Order batch reconciled")

	return &BatchResult{
		Appended: len(appendRows),
		Updated:  updated,
		OrderID:  orderID,
	}, nil
}

// LegacyUpsert is the single-object write shape kept for the old form:
// one item carrying its order-level fields inline, with the buyer name
// possibly arriving under the legacy "name" key.
type LegacyUpsert struct {
	ID              string
	BuyerName       string
	LegacyName      string
	Number          string
	Size            string
	NameOnJersey    string
	IsLongSleeve    bool
	IsMuslimah      bool
	Price           float64
	Paid            bool
	Timestamp       time.Time
	Fulfillment     string
	DeliveryAddress string
	ContactPhone    string
}

// UpsertSingle is the degenerate one-item case of the batch logic. It
// writes the legacy column set only, leaving the multi-item columns
// blank the way the old form always did.
func (r *Reconciler) UpsertSingle(ctx context.Context, req LegacyUpsert) (updated bool, id string, err error) {
	idx, err := sheet.EnsureHeader(ctx, r.table)
	if err != nil {
		return false, "", err
	}

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return false, "", fmt.Errorf("read rows: %w", err)
	}

	id = req.ID
	if id == "" {
		id = uuid.New().String()
	}
	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	buyerName := req.BuyerName
	if buyerName == "" {
		buyerName = req.LegacyName
	}
	unitPrice := req.Price
	if unitPrice <= 0 {
		unitPrice = pricing.UnitPrice(models.LineItem{
			Size:         req.Size,
			IsLongSleeve: req.IsLongSleeve,
			IsMuslimah:   req.IsMuslimah,
		})
	}

	row := sheet.Encode(idx, sheet.RowData{
		LegacySingle:    true,
		Timestamp:       timestamp.Format(time.RFC3339),
		BuyerName:       buyerName,
		Number:          req.Number,
		Size:            req.Size,
		NameOnJersey:    req.NameOnJersey,
		IsLongSleeve:    req.IsLongSleeve,
		IsMuslimah:      req.IsMuslimah,
		Paid:            req.Paid,
		ID:              id,
		UnitPrice:       unitPrice,
		Fulfillment:     req.Fulfillment,
		DeliveryAddress: req.DeliveryAddress,
		ContactPhone:    req.ContactPhone,
	})

	if pos, ok := firstRowWithID(idx, rows, id); ok {
		if err := r.table.UpdateRow(ctx, pos, row); err != nil {
			return false, "", fmt.Errorf("overwrite row %s: %w", id, err)
		}
		return true, id, nil
	}
	if err := r.table.AppendRows(ctx, []sheet.Row{row}); err != nil {
		return false, "", fmt.Errorf("append row %s: %w", id, err)
	}
	return false, id, nil
}

// UpdatePaid flips the Paid cell of the row holding the given item id,
// leaving every other cell untouched.
func (r *Reconciler) UpdatePaid(ctx context.Context, id string, paid bool) error {
	idx, err := sheet.EnsureHeader(ctx, r.table)
	if err != nil {
		return err
	}

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	pos, ok := firstRowWithID(idx, rows, id)
	if !ok {
		return ErrNotFound
	}

	if err := r.table.UpdateCell(ctx, pos, idx.Col(sheet.ColPaid), sheet.YesNo(paid)); err != nil {
		return fmt.Errorf("update paid cell: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":   id,
		"paid": paid,
	}).Info("Paid status updated")
	return nil
}

// DeleteByOrderID removes every row of one order. Zero matches is not an
// error; the count is reported. Rows are removed highest position first
// so pending positions stay valid while earlier ones shift.
func (r *Reconciler) DeleteByOrderID(ctx context.Context, orderID string) (int, error) {
	idx, err := sheet.EnsureHeader(ctx, r.table)
	if err != nil {
		return 0, err
	}

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("read rows: %w", err)
	}

	orderCol := idx.Col(sheet.ColOrderID)
	var positions []int
	for pos, row := range rows {
		if orderCol >= 0 && orderCol < len(row) && row[orderCol] == orderID {
			positions = append(positions, pos)
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	for _, pos := range positions {
		if err := r.table.DeleteRow(ctx, pos); err != nil {
			return 0, fmt.Errorf("delete row %d: %w", pos, err)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"deleted":  len(positions),
	}).Info("Order deleted")
	return len(positions), nil
}

// DeleteByID removes the single row holding the given item id.
func (r *Reconciler) DeleteByID(ctx context.Context, id string) error {
	idx, err := sheet.EnsureHeader(ctx, r.table)
	if err != nil {
		return err
	}

	rows, err := r.table.Rows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	pos, ok := firstRowWithID(idx, rows, id)
	if !ok {
		return ErrNotFound
	}

	if err := r.table.DeleteRow(ctx, pos); err != nil {
		return fmt.Errorf("delete row %d: %w", pos, err)
	}

	r.logger.WithField("id", id).Info("Line item deleted")
	return nil
}

// indexByID maps item ids to row positions for the batch path. Rows
// without an id cell are skipped; on duplicate ids the last row wins.
func indexByID(idx sheet.ColumnIndex, rows []sheet.Row) map[string]int {
	idCol := idx.Col(sheet.ColID)
	posByID := make(map[string]int, len(rows))
	if idCol < 0 {
		return posByID
	}
	for pos, row := range rows {
		if idCol < len(row) && row[idCol] != "" {
			posByID[row[idCol]] = pos
		}
	}
	return posByID
}

// firstRowWithID scans top-down and stops at the first row holding the
// id. Single-row operations act on that row even when later rows carry
// the same id.
func firstRowWithID(idx sheet.ColumnIndex, rows []sheet.Row, id string) (int, bool) {
	idCol := idx.Col(sheet.ColID)
	if idCol < 0 || id == "" {
		return 0, false
	}
	for pos, row := range rows {
		if idCol < len(row) && row[idCol] == id {
			return pos, true
		}
	}
	return 0, false
}
