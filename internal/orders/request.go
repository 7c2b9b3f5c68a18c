package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/teamjersey/order-intake/internal/reconcile"
	"github.com/teamjersey/order-intake/pkg/models"
)

// The write endpoint accepts one loosely-shaped JSON body dispatched by
// an action discriminator, falling back to shape: an items array means a
// batch upsert, anything else is a legacy single-object upsert. The
// request is decoded once into an explicit sum type so every handler
// path matches exhaustively instead of probing fields.
//
// Clients are sloppy about types: the form sends orderId as a number,
// and the list view round-trips whole stored rows on a paid toggle, so
// prices arrive as strings and flags as "Yes"/"No". Every such field is
// decoded raw and coerced; a bad value falls back to its zero, it never
// rejects the request.

var (
	ErrEmptyBody     = errors.New("no body")
	ErrMalformedBody = errors.New("malformed request body")
	ErrDeleteTarget  = errors.New("missing id or orderId for delete")
	ErrPaidTarget    = errors.New("missing id for paid update")
)

type opKind int

const (
	opDelete opKind = iota
	opUpdatePaid
	opUpsertBatch
	opUpsertSingle
)

type deleteOp struct {
	OrderID string
	ID      string
}

type updatePaidOp struct {
	ID   string
	Paid bool
}

type writeOp struct {
	kind   opKind
	del    *deleteOp
	paid   *updatePaidOp
	batch  *models.Order
	single *reconcile.LegacyUpsert
}

// writeRequest is the union of every field any variant may carry.
type writeRequest struct {
	Action    string          `json:"action"`
	ID        json.RawMessage `json:"id"`
	OrderID   json.RawMessage `json:"orderId"`
	Paid      json.RawMessage `json:"paid"`
	Timestamp json.RawMessage `json:"timestamp"`

	Items           []itemPayload   `json:"items"`
	BuyerName       string          `json:"buyerName"`
	Fulfillment     string          `json:"fulfillment"`
	DeliveryAddress string          `json:"deliveryAddress"`
	ContactPhone    string          `json:"contactPhone"`
	Subtotal        json.RawMessage `json:"subtotal"`
	DeliveryFee     json.RawMessage `json:"deliveryFee"`
	GrandTotal      json.RawMessage `json:"grandTotal"`

	// Legacy single-object fields.
	Name         string          `json:"name"`
	Number       json.RawMessage `json:"number"`
	Size         string          `json:"size"`
	NameOnJersey string          `json:"nameOnJersey"`
	IsLongSleeve json.RawMessage `json:"isLongSleeve"`
	IsMuslimah   json.RawMessage `json:"isMuslimah"`
	Price        json.RawMessage `json:"price"`
}

type itemPayload struct {
	ID           json.RawMessage `json:"id"`
	Number       json.RawMessage `json:"number"`
	Size         string          `json:"size"`
	NameOnJersey string          `json:"nameOnJersey"`
	IsLongSleeve json.RawMessage `json:"isLongSleeve"`
	IsMuslimah   json.RawMessage `json:"isMuslimah"`
	Quantity     json.RawMessage `json:"quantity"`
	UnitPrice    json.RawMessage `json:"unitPrice"`
	LineTotal    json.RawMessage `json:"lineTotal"`
	Paid         json.RawMessage `json:"paid"`
}

func decodeWriteRequest(body io.Reader) (*writeOp, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, ErrMalformedBody
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyBody
	}

	var req writeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ErrMalformedBody
	}

	switch req.Action {
	case "delete":
		orderID := asString(req.OrderID)
		id := asString(req.ID)
		if orderID == "" && id == "" {
			return nil, ErrDeleteTarget
		}
		return &writeOp{kind: opDelete, del: &deleteOp{OrderID: orderID, ID: id}}, nil

	case "updatePaid":
		id := asString(req.ID)
		if id == "" {
			return nil, ErrPaidTarget
		}
		return &writeOp{kind: opUpdatePaid, paid: &updatePaidOp{
			ID:   id,
			Paid: paidFromToggle(req.Paid),
		}}, nil
	}

	if len(req.Items) > 0 {
		items := make([]models.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			item := models.LineItem{
				ID:           asString(it.ID),
				Number:       asString(it.Number),
				Size:         it.Size,
				NameOnJersey: it.NameOnJersey,
				IsLongSleeve: asBool(it.IsLongSleeve),
				IsMuslimah:   asBool(it.IsMuslimah),
				Quantity:     asInt(it.Quantity, 0),
				UnitPrice:    asNumber(it.UnitPrice, 0),
				LineTotal:    asNumber(it.LineTotal, 0),
			}
			if len(it.Paid) > 0 {
				paid := asBool(it.Paid)
				item.Paid = &paid
			}
			items = append(items, item)
		}

		return &writeOp{kind: opUpsertBatch, batch: &models.Order{
			OrderID:         asString(req.OrderID),
			BuyerName:       strings.TrimSpace(req.BuyerName),
			ContactPhone:    strings.TrimSpace(req.ContactPhone),
			Fulfillment:     models.Fulfillment(strings.TrimSpace(req.Fulfillment)),
			DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
			Paid:            asBool(req.Paid),
			Timestamp:       parseTimestamp(req.Timestamp),
			Subtotal:        asNumber(req.Subtotal, 0),
			DeliveryFee:     asNumber(req.DeliveryFee, 0),
			GrandTotal:      asNumber(req.GrandTotal, 0),
			Items:           items,
		}}, nil
	}

	return &writeOp{kind: opUpsertSingle, single: &reconcile.LegacyUpsert{
		ID:              asString(req.ID),
		BuyerName:       req.BuyerName,
		LegacyName:      req.Name,
		Number:          asString(req.Number),
		Size:            req.Size,
		NameOnJersey:    req.NameOnJersey,
		IsLongSleeve:    asBool(req.IsLongSleeve),
		IsMuslimah:      asBool(req.IsMuslimah),
		Price:           asNumber(req.Price, 0),
		Paid:            asBool(req.Paid),
		Timestamp:       parseTimestamp(req.Timestamp),
		Fulfillment:     req.Fulfillment,
		DeliveryAddress: req.DeliveryAddress,
		ContactPhone:    req.ContactPhone,
	}}, nil
}

// paidFromToggle reads the paid value of an updatePaid request. The
// toggle UI sends the strings "Yes" or "No"; anything else, including a
// bare boolean, means "No".
func paidFromToggle(raw json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s == "Yes"
}

// asString coerces an id-like value that clients send as either a JSON
// string or a number (the form uses Date.now() for order ids). Anything
// else is empty.
func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// asNumber coerces a numeric value sent as a number or a numeric
// string. Invalid input yields the fallback, never an error.
func asNumber(raw json.RawMessage, fallback float64) float64 {
	if len(raw) == 0 {
		return fallback
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return fallback
}

func asInt(raw json.RawMessage, fallback int) int {
	return int(asNumber(raw, float64(fallback)))
}

// asBool coerces a flag sent as a boolean, a stored "Yes"/"No" cell, or
// a number. "Yes" is the only true string: round-tripped rows carry
// "No" for false, which must not read as set.
func asBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s == "Yes"
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}
	return false
}

// parseTimestamp accepts the ISO string the form sends or an epoch in
// milliseconds; anything else means "now" downstream.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}
