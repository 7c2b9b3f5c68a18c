package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/teamjersey/order-intake/internal/events"
	"github.com/teamjersey/order-intake/internal/pricing"
	"github.com/teamjersey/order-intake/internal/reconcile"
	"github.com/teamjersey/order-intake/internal/sheet"
	"github.com/teamjersey/order-intake/internal/websocket"
	"github.com/teamjersey/order-intake/pkg/models"
)

// Notifier publishes an operator notification for a newly created order.
// It fires once per batch that appended at least one row, never on pure
// edits.
type Notifier interface {
	PublishOrderReceived(event events.OrderReceivedEvent) error
}

// EventSink receives push hints for connected list views.
type EventSink interface {
	Broadcast(event string, data interface{})
}

type Handler struct {
	reconciler *reconcile.Reconciler
	table      sheet.Table
	logger     *logrus.Logger
	notifier   Notifier
	sink       EventSink
}

func NewHandler(reconciler *reconcile.Reconciler, table sheet.Table, logger *logrus.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		table:      table,
		logger:     logger,
	}
}

func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

func (h *Handler) SetEventSink(s EventSink) {
	h.sink = s
}

// HandleWrite is the single POST entry point. The body is decoded into
// one of the four write variants; every failure comes back as a
// structured {success:false, message} response.
func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	op, err := decodeWriteRequest(r.Body)
	if err != nil {
		h.logger.WithError(err).Error("Failed to decode write request")
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch op.kind {
	case opDelete:
		h.handleDelete(w, r, op.del)
	case opUpdatePaid:
		h.handleUpdatePaid(w, r, op.paid)
	case opUpsertBatch:
		h.handleUpsertBatch(w, r, op.batch)
	case opUpsertSingle:
		h.handleUpsertSingle(w, r, op.single)
	}
}

func (h *Handler) handleUpsertBatch(w http.ResponseWriter, r *http.Request, order *models.Order) {
	if err := pricing.Validate(order); err != nil {
		var verr *pricing.ValidationError
		if errors.As(err, &verr) {
			h.respondWithError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reconciler.UpsertBatch(r.Context(), order)
	if err != nil {
		h.logger.WithError(err).Error("Failed to reconcile order batch")
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Notify only on genuine new-order creation, for the batch as a
	// whole. Publish failures are logged, never surfaced to the buyer.
	if result.Appended > 0 && h.notifier != nil {
		if err := h.notifier.PublishOrderReceived(receivedEvent(order, result.OrderID)); err != nil {
			h.logger.WithError(err).Error("Failed to publish order received event")
		}
	}
	if h.sink != nil {
		h.sink.Broadcast(websocket.EventOrderReceived, map[string]interface{}{
			"orderId":  result.OrderID,
			"appended": result.Appended,
			"updated":  result.Updated,
		})
	}

	h.respondWithJSON(w, http.StatusOK, models.UpsertBatchResponse{
		Success:  true,
		Appended: result.Appended,
		Updated:  result.Updated,
	})
}

func (h *Handler) handleUpsertSingle(w http.ResponseWriter, r *http.Request, req *reconcile.LegacyUpsert) {
	updated, id, err := h.reconciler.UpsertSingle(r.Context(), *req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upsert order")
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.sink != nil {
		h.sink.Broadcast(websocket.EventOrderReceived, map[string]interface{}{"id": id})
	}

	h.respondWithJSON(w, http.StatusOK, models.UpsertSingleResponse{
		Success: true,
		Updated: updated,
		ID:      id,
	})
}

func (h *Handler) handleUpdatePaid(w http.ResponseWriter, r *http.Request, op *updatePaidOp) {
	err := h.reconciler.UpdatePaid(r.Context(), op.ID, op.Paid)
	if errors.Is(err, reconcile.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to update paid status")
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.sink != nil {
		h.sink.Broadcast(websocket.EventPaidUpdated, map[string]interface{}{
			"id":   op.ID,
			"paid": op.Paid,
		})
	}

	h.respondWithJSON(w, http.StatusOK, models.UpdatePaidResponse{
		Success: true,
		Updated: true,
		ID:      op.ID,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, op *deleteOp) {
	if op.OrderID != "" {
		count, err := h.reconciler.DeleteByOrderID(r.Context(), op.OrderID)
		if err != nil {
			h.logger.WithError(err).Error("Failed to delete order")
			h.respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if h.sink != nil {
			h.sink.Broadcast(websocket.EventOrderDeleted, map[string]interface{}{
				"orderId": op.OrderID,
				"deleted": count,
			})
		}
		h.respondWithJSON(w, http.StatusOK, models.DeleteResponse{
			Success:      true,
			DeletedCount: count,
		})
		return
	}

	err := h.reconciler.DeleteByID(r.Context(), op.ID)
	if errors.Is(err, reconcile.ErrNotFound) {
		h.respondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete line item")
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h.sink != nil {
		h.sink.Broadcast(websocket.EventOrderDeleted, map[string]interface{}{"id": op.ID})
	}
	h.respondWithJSON(w, http.StatusOK, models.DeleteResponse{
		Success:      true,
		Deleted:      true,
		DeletedCount: 1,
	})
}

// HandleList serves the flat order list. A read failure degrades to an
// empty list plus an error field instead of failing the response.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.reconciler.ListOrders(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		h.respondWithJSON(w, http.StatusInternalServerError, models.ListOrdersResponse{
			Orders: []models.OrderView{},
			Error:  err.Error(),
		})
		return
	}

	h.respondWithJSON(w, http.StatusOK, models.ListOrdersResponse{Orders: views})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if pinger, ok := h.table.(sheet.Pinger); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			h.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "order-service",
				"error":   "store connection failed",
			})
			return
		}
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "order-service",
	})
}

func receivedEvent(order *models.Order, orderID string) events.OrderReceivedEvent {
	subtotal, deliveryFee, grandTotal := order.Subtotal, order.DeliveryFee, order.GrandTotal
	if subtotal == 0 && grandTotal == 0 {
		subtotal, deliveryFee, grandTotal = pricing.Totals(order)
	}

	items := make([]events.OrderReceivedItem, 0, len(order.Items))
	for _, it := range order.Items {
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
		items = append(items, events.OrderReceivedItem{
			ID:           it.ID,
			Number:       it.Number,
			Size:         it.Size,
			NameOnJersey: it.NameOnJersey,
			IsLongSleeve: it.IsLongSleeve,
			IsMuslimah:   it.IsMuslimah,
			Quantity:     qty,
			UnitPrice:    unitPrice,
			LineTotal:    lineTotal,
		})
	}

	return events.OrderReceivedEvent{
		OrderID:         orderID,
		BuyerName:       order.BuyerName,
		ContactPhone:    order.ContactPhone,
		Fulfillment:     string(order.Fulfillment),
		DeliveryAddress: order.DeliveryAddress,
		Paid:            order.Paid,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		GrandTotal:      grandTotal,
		Items:           items,
		CreatedAt:       order.Timestamp,
	}
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, models.ErrorResponse{Success: false, Message: message})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
