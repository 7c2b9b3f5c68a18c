package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamjersey/order-intake/internal/pricing"
	"github.com/teamjersey/order-intake/internal/sheet"
	"github.com/teamjersey/order-intake/pkg/models"
)

func testReconciler(t *testing.T) (*Reconciler, *sheet.MemoryTable) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	table := sheet.NewMemoryTable()
	return New(table, logger), table
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderID:      "order-1",
		BuyerName:    "Ali",
		ContactPhone: "0123456789",
		Fulfillment:  models.FulfillmentPickup,
		Timestamp:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Items: []models.LineItem{
			{ID: "item-1", Size: "M"},
			{ID: "item-2", Size: "5/6 yr", Quantity: 2},
		},
	}
}

func TestUpsertBatchAppendsNewOrder(t *testing.T) {
	ctx := context.Background()
	r, table := testReconciler(t)

	res, err := r.UpsertBatch(ctx, sampleOrder())
	if err != nil {
		t.Fatalf("UpsertBatch() error = %v", err)
	}
	if res.Appended != 2 || res.Updated != 0 {
		t.Errorf("result = %+v, want 2 appended, 0 updated", res)
	}

	rows, _ := table.Rows(ctx)
	if len(rows) != 2 {
		t.Fatalf("store has %d rows, want 2", len(rows))
	}

	views, err := r.ListOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if views[0].ID != "item-1" || views[1].ID != "item-2" {
		t.Errorf("batch order not preserved: %q, %q", views[0].ID, views[1].ID)
	}
	// Server-derived pricing: M=50, child*2=76, pickup so no fee.
	if views[0].UnitPrice != "50" || views[0].LineTotal != "50" {
		t.Errorf("item-1 priced %q/%q, want 50/50", views[0].UnitPrice, views[0].LineTotal)
	}
	if views[1].UnitPrice != "38" || views[1].LineTotal != "76" {
		t.Errorf("item-2 priced %q/%q, want 38/76", views[1].UnitPrice, views[1].LineTotal)
	}
	for i, v := range views {
		if v.Subtotal != "126" || v.DeliveryFee != "0" || v.GrandTotal != "126" {
			t.Errorf("row %d totals = %q/%q/%q, want 126/0/126", i, v.Subtotal, v.DeliveryFee, v.GrandTotal)
		}
		if v.BuyerName != "Ali" || v.ContactPhone != "0123456789" || v.OrderID != "order-1" {
			t.Errorf("row %d order fields not replicated: %+v", i, v)
		}
	}
}

func TestUpsertBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, table := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}
	res, err := r.UpsertBatch(ctx, sampleOrder())
	if err != nil {
		t.Fatal(err)
	}

	if res.Appended != 0 || res.Updated != 2 {
		t.Errorf("second submission = %+v, want 0 appended, 2 updated", res)
	}
	rows, _ := table.Rows(ctx)
	if len(rows) != 2 {
		t.Errorf("store has %d rows after resubmission, want 2", len(rows))
	}
}

func TestUpsertBatchOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	r, table := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}

	changed := sampleOrder()
	changed.Items = []models.LineItem{{ID: "item-1", Size: "7XL"}}
	res, err := r.UpsertBatch(ctx, changed)
	if err != nil {
		t.Fatal(err)
	}
	if res.Appended != 0 || res.Updated != 1 {
		t.Errorf("result = %+v, want pure overwrite", res)
	}

	rows, _ := table.Rows(ctx)
	if len(rows) != 2 {
		t.Fatalf("row count changed on overwrite: %d", len(rows))
	}
	views, _ := r.ListOrders(ctx)
	if views[0].Size != "7XL" || views[0].UnitPrice != "60" {
		t.Errorf("row 0 = %q@%q, want 7XL@60", views[0].Size, views[0].UnitPrice)
	}
	if views[1].ID != "item-2" {
		t.Errorf("untouched row moved: %q", views[1].ID)
	}
}

func TestUpsertBatchMixesOverwriteAndAppend(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}

	grown := sampleOrder()
	grown.Items = append(grown.Items, models.LineItem{ID: "item-3", Size: "L"})
	res, err := r.UpsertBatch(ctx, grown)
	if err != nil {
		t.Fatal(err)
	}
	if res.Appended != 1 || res.Updated != 2 {
		t.Errorf("result = %+v, want 1 appended, 2 updated", res)
	}

	views, _ := r.ListOrders(ctx)
	if len(views) != 3 || views[2].ID != "item-3" {
		t.Errorf("new item not appended after current end: %+v", views)
	}
}

func TestUpsertBatchGeneratesMissingIDs(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	order := sampleOrder()
	order.OrderID = ""
	order.Items = []models.LineItem{{Size: "M"}}

	res, err := r.UpsertBatch(ctx, order)
	if err != nil {
		t.Fatal(err)
	}
	if res.OrderID == "" {
		t.Error("order id not generated")
	}

	views, _ := r.ListOrders(ctx)
	if views[0].ID == "" {
		t.Error("item id not generated")
	}
	if views[0].OrderID != res.OrderID {
		t.Errorf("row carries order id %q, want %q", views[0].OrderID, res.OrderID)
	}
}

func TestUpsertBatchRespectsExplicitTotalsAndPrices(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	order := sampleOrder()
	order.Fulfillment = models.FulfillmentDelivery
	order.DeliveryAddress = "12 Jalan Example"
	order.Subtotal = 200
	order.DeliveryFee = pricing.DeliveryFee
	order.GrandTotal = 205
	order.Items = []models.LineItem{{ID: "item-1", Size: "M", UnitPrice: 100, Quantity: 2}}

	if _, err := r.UpsertBatch(ctx, order); err != nil {
		t.Fatal(err)
	}
	views, _ := r.ListOrders(ctx)
	v := views[0]
	if v.UnitPrice != "100" || v.LineTotal != "200" {
		t.Errorf("explicit price not kept: %q/%q", v.UnitPrice, v.LineTotal)
	}
	if v.Subtotal != "200" || v.DeliveryFee != "5" || v.GrandTotal != "205" {
		t.Errorf("explicit totals not kept: %q/%q/%q", v.Subtotal, v.DeliveryFee, v.GrandTotal)
	}
	if v.Fulfillment != "delivery" || v.DeliveryAddress != "12 Jalan Example" {
		t.Errorf("fulfillment fields = %q/%q", v.Fulfillment, v.DeliveryAddress)
	}
}

func TestUpsertBatchRecomputesDeliveryFee(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	order := sampleOrder()
	order.Fulfillment = models.FulfillmentDelivery
	order.DeliveryAddress = "12 Jalan Example"
	order.Items = []models.LineItem{{ID: "item-1", Size: "M"}}

	if _, err := r.UpsertBatch(ctx, order); err != nil {
		t.Fatal(err)
	}
	views, _ := r.ListOrders(ctx)
	v := views[0]
	if v.DeliveryFee != "5" {
		t.Errorf("delivery fee = %q, want 5", v.DeliveryFee)
	}
	if v.Subtotal != "50" || v.GrandTotal != "55" {
		t.Errorf("totals = %q/%q, want 50/55", v.Subtotal, v.GrandTotal)
	}
}

func TestUpsertBatchPerItemPaidOverride(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	paid := true
	order := sampleOrder()
	order.Paid = false
	order.Items[1].Paid = &paid

	if _, err := r.UpsertBatch(ctx, order); err != nil {
		t.Fatal(err)
	}
	views, _ := r.ListOrders(ctx)
	if views[0].Paid != "No" {
		t.Errorf("item-1 paid = %q, want order default No", views[0].Paid)
	}
	if views[1].Paid != "Yes" {
		t.Errorf("item-2 paid = %q, want item override Yes", views[1].Paid)
	}
}

func TestUpsertSingleLegacy(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	updated, id, err := r.UpsertSingle(ctx, LegacyUpsert{
		LegacyName: "Siti", // old form sends "name", not "buyerName"
		Size:       "S",
		IsMuslimah: true,
	})
	if err != nil {
		t.Fatalf("UpsertSingle() error = %v", err)
	}
	if updated {
		t.Error("first write reported as update")
	}
	if id == "" {
		t.Fatal("id not generated")
	}

	views, _ := r.ListOrders(ctx)
	v := views[0]
	if v.Name != "Siti" || v.BuyerName != "Siti" {
		t.Errorf("legacy name fallback missed: name=%q buyerName=%q", v.Name, v.BuyerName)
	}
	if v.Price != "60" {
		t.Errorf("price = %q, want recomputed 60", v.Price)
	}
	if v.Quantity != "" || v.OrderID != "" || v.Subtotal != "" {
		t.Errorf("legacy row must leave multi-item columns blank, got %q/%q/%q",
			v.Quantity, v.OrderID, v.Subtotal)
	}

	// Resubmitting the same id overwrites in place.
	updated, sameID, err := r.UpsertSingle(ctx, LegacyUpsert{ID: id, BuyerName: "Siti", Size: "M"})
	if err != nil {
		t.Fatal(err)
	}
	if !updated || sameID != id {
		t.Errorf("resubmit = (%v, %q), want update of %q", updated, sameID, id)
	}
	views, _ = r.ListOrders(ctx)
	if len(views) != 1 || views[0].Size != "M" {
		t.Errorf("store after resubmit = %+v", views)
	}
}

func TestUpdatePaidTouchesOnlyPaidColumn(t *testing.T) {
	ctx := context.Background()
	r, table := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}
	before, _ := table.Rows(ctx)

	if err := r.UpdatePaid(ctx, "item-2", true); err != nil {
		t.Fatalf("UpdatePaid() error = %v", err)
	}

	after, _ := table.Rows(ctx)
	idx, _ := sheet.EnsureHeader(ctx, table)
	paidCol := idx.Col(sheet.ColPaid)

	for col := range before[1] {
		if col == paidCol {
			continue
		}
		if before[1][col] != after[1][col] {
			t.Errorf("column %d changed: %q -> %q", col, before[1][col], after[1][col])
		}
	}
	if after[1][paidCol] != "Yes" {
		t.Errorf("paid cell = %q, want Yes", after[1][paidCol])
	}
	for col := range before[0] {
		if before[0][col] != after[0][col] {
			t.Errorf("unrelated row changed at column %d", col)
		}
	}
}

func TestUpdatePaidUnknownID(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdatePaid(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePaid(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteByOrderIDCascades(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}
	other := sampleOrder()
	other.OrderID = "order-2"
	other.Items = []models.LineItem{{ID: "item-3", Size: "L"}}
	if _, err := r.UpsertBatch(ctx, other); err != nil {
		t.Fatal(err)
	}

	count, err := r.DeleteByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("DeleteByOrderID() error = %v", err)
	}
	if count != 2 {
		t.Errorf("deleted %d rows, want 2", count)
	}

	views, _ := r.ListOrders(ctx)
	if len(views) != 1 || views[0].ID != "item-3" {
		t.Errorf("survivor rows = %+v, want only item-3", views)
	}
	if views[0].Size != "L" || views[0].OrderID != "order-2" {
		t.Errorf("survivor fields disturbed: %+v", views[0])
	}
}

func TestDeleteByOrderIDNoMatches(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}
	count, err := r.DeleteByOrderID(ctx, "no-such-order")
	if err != nil {
		t.Fatalf("DeleteByOrderID() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	views, _ := r.ListOrders(ctx)
	if len(views) != 2 {
		t.Errorf("rows disturbed by no-op delete: %d", len(views))
	}
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	if _, err := r.UpsertBatch(ctx, sampleOrder()); err != nil {
		t.Fatal(err)
	}

	if err := r.DeleteByID(ctx, "item-1"); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	views, _ := r.ListOrders(ctx)
	if len(views) != 1 || views[0].ID != "item-2" {
		t.Errorf("rows after delete = %+v", views)
	}

	if err := r.DeleteByID(ctx, "item-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDuplicateIDSingleRowOpsHitFirstRow(t *testing.T) {
	ctx := context.Background()
	r, table := testReconciler(t)

	// Two rows sharing an id can exist in an old store. Paid toggles and
	// deletes must act on the topmost one, the way a top-down scan finds it.
	idx, err := sheet.EnsureHeader(ctx, table)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.AppendRows(ctx, []sheet.Row{
		sheet.Encode(idx, sheet.RowData{ID: "dup-1", BuyerName: "First", Size: "S"}),
		sheet.Encode(idx, sheet.RowData{ID: "dup-1", BuyerName: "Second", Size: "M"}),
	}); err != nil {
		t.Fatal(err)
	}

	if err := r.UpdatePaid(ctx, "dup-1", true); err != nil {
		t.Fatalf("UpdatePaid() error = %v", err)
	}
	views, _ := r.ListOrders(ctx)
	if views[0].Paid != "Yes" {
		t.Errorf("first row paid = %q, want Yes", views[0].Paid)
	}
	if views[1].Paid == "Yes" {
		t.Error("paid toggle leaked to the later duplicate")
	}

	if err := r.DeleteByID(ctx, "dup-1"); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	views, _ = r.ListOrders(ctx)
	if len(views) != 1 || views[0].BuyerName != "Second" {
		t.Errorf("rows after delete = %+v, want only the later duplicate", views)
	}

	// A single-object resubmit overwrites the surviving first match.
	if _, _, err := r.UpsertSingle(ctx, LegacyUpsert{ID: "dup-1", BuyerName: "Third", Size: "L"}); err != nil {
		t.Fatal(err)
	}
	views, _ = r.ListOrders(ctx)
	if len(views) != 1 || views[0].BuyerName != "Third" {
		t.Errorf("rows after resubmit = %+v, want in-place overwrite", views)
	}
}

func TestListOrdersEmptyStore(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	views, err := r.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if views == nil || len(views) != 0 {
		t.Errorf("views = %v, want empty non-nil slice", views)
	}
}

func TestListOrdersReadsLegacyRows(t *testing.T) {
	ctx := context.Background()
	r, table := testReconciler(t)

	// Seed a row written under the original ten-column schema, before
	// the multi-item columns existed.
	if err := table.SetHeader(ctx, append(sheet.Row{}, sheet.FullHeader[:10]...)); err != nil {
		t.Fatal(err)
	}
	if err := table.AppendRows(ctx, []sheet.Row{
		{"2024-01-01", "Ahmad", "23", "XL", "AHMAD", "Yes", "No", "55", "Yes", "old-1"},
	}); err != nil {
		t.Fatal(err)
	}

	views, err := r.ListOrders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}
	v := views[0]
	if v.ID != "old-1" || v.Name != "Ahmad" || v.Price != "55" {
		t.Errorf("legacy row decoded wrong: %+v", v)
	}
	if v.OrderID != "" || v.Fulfillment != "" {
		t.Errorf("legacy row must have empty new columns, got %q/%q", v.OrderID, v.Fulfillment)
	}

	// The legacy row stays addressable by the same id-keyed operations.
	if err := r.UpdatePaid(ctx, "old-1", false); err != nil {
		t.Fatalf("UpdatePaid on legacy row: %v", err)
	}
	views, _ = r.ListOrders(ctx)
	if views[0].Paid != "No" {
		t.Errorf("legacy row paid = %q, want No", views[0].Paid)
	}
}

func TestRoundTripOrderFields(t *testing.T) {
	ctx := context.Background()
	r, _ := testReconciler(t)

	order := sampleOrder()
	order.Fulfillment = models.FulfillmentDelivery
	order.DeliveryAddress = "7 Lorong Contoh"

	if _, err := r.UpsertBatch(ctx, order); err != nil {
		t.Fatal(err)
	}
	views, _ := r.ListOrders(ctx)

	for i, v := range views {
		if v.BuyerName != order.BuyerName {
			t.Errorf("row %d buyerName = %q, want %q", i, v.BuyerName, order.BuyerName)
		}
		if v.Fulfillment != string(order.Fulfillment) {
			t.Errorf("row %d fulfillment = %q, want %q", i, v.Fulfillment, order.Fulfillment)
		}
		if v.DeliveryAddress != order.DeliveryAddress {
			t.Errorf("row %d address = %q, want %q", i, v.DeliveryAddress, order.DeliveryAddress)
		}
		if v.ContactPhone != order.ContactPhone {
			t.Errorf("row %d phone = %q, want %q", i, v.ContactPhone, order.ContactPhone)
		}
		if v.Size != order.Items[i].Size {
			t.Errorf("row %d size = %q, want %q", i, v.Size, order.Items[i].Size)
		}
	}
}
