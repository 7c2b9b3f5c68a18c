package models

import (
	"time"
)

// LineItem is one jersey in an order. IDs are unique across the whole
// store, not just within an order, so a single item can be updated or
// deleted without touching its siblings.
type LineItem struct {
	ID           string  `json:"id"`
	Number       string  `json:"number"`
	Size         string  `json:"size"`
	NameOnJersey string  `json:"nameOnJersey"`
	IsLongSleeve bool    `json:"isLongSleeve"`
	IsMuslimah   bool    `json:"isMuslimah"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	LineTotal    float64 `json:"lineTotal"`
	Paid         *bool   `json:"paid,omitempty"`
}

type Fulfillment string

const (
	FulfillmentPickup   Fulfillment = "pickup"
	FulfillmentDelivery Fulfillment = "delivery"
)

// Order groups the line items of one checkout. Order-level fields are
// replicated onto every stored row of the order.
type Order struct {
	OrderID         string      `json:"orderId"`
	BuyerName       string      `json:"buyerName"`
	ContactPhone    string      `json:"contactPhone"`
	Fulfillment     Fulfillment `json:"fulfillment"`
	DeliveryAddress string      `json:"deliveryAddress"`
	Paid            bool        `json:"paid"`
	Timestamp       time.Time   `json:"timestamp"`
	Subtotal        float64     `json:"subtotal"`
	DeliveryFee     float64     `json:"deliveryFee"`
	GrandTotal      float64     `json:"grandTotal"`
	Items           []LineItem  `json:"items"`
}

// OrderView is one stored row as served to list consumers. It carries
// both the legacy flat keys the old UI reads and the newer explicit
// names; both sets come from the same columns and never diverge.
type OrderView struct {
	Timestamp    string `json:"timestamp"`
	Name         string `json:"name"`
	Number       string `json:"number"`
	Size         string `json:"size"`
	NameOnJersey string `json:"nameOnJersey"`
	IsLongSleeve string `json:"isLongSleeve"`
	IsMuslimah   string `json:"isMuslimah"`
	Price        string `json:"price"`
	Paid         string `json:"paid"`
	ID           string `json:"id"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	LineTotal    string `json:"lineTotal"`
	OrderID      string `json:"orderId"`
	Subtotal     string `json:"subtotal"`
	DeliveryFee  string `json:"deliveryFee"`
	GrandTotal   string `json:"grandTotal"`

	BuyerName       string `json:"buyerName"`
	Fulfillment     string `json:"fulfillment"`
	DeliveryAddress string `json:"deliveryAddress"`
	ContactPhone    string `json:"contactPhone"`
}

type ListOrdersResponse struct {
	Orders []OrderView `json:"orders"`
	Error  string      `json:"error,omitempty"`
}

type UpsertBatchResponse struct {
	Success  bool `json:"success"`
	Appended int  `json:"appended"`
	Updated  int  `json:"updated"`
}

type UpsertSingleResponse struct {
	Success bool   `json:"success"`
	Updated bool   `json:"updated"`
	ID      string `json:"id"`
}

type UpdatePaidResponse struct {
	Success bool   `json:"success"`
	Updated bool   `json:"updated"`
	ID      string `json:"id"`
}

type DeleteResponse struct {
	Success      bool `json:"success"`
	Deleted      bool `json:"deleted,omitempty"`
	DeletedCount int  `json:"deletedCount"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
