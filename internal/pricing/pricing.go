// Package pricing derives unit prices and order totals for jersey line
// items. The price table is authoritative on both sides of the wire: the
// client uses it to show totals and the server recomputes with it whenever
// a submitted price is absent or not numeric.
package pricing

import (
	"strings"

	"github.com/teamjersey/order-intake/pkg/models"
)

const (
	// Whole currency units. Child sizes carry a "yr" suffix (e.g. "5/6 yr").
	childBasePrice = 38
	adultBasePrice = 50

	longSleeveSurcharge = 5
	muslimahSurcharge   = 10

	// DeliveryFee is charged once per order when fulfillment is delivery.
	DeliveryFee = 5
)

// UnitPrice computes the price of a single jersey from its size and
// add-on flags. Total over any size string: unknown sizes fall into the
// adult base tier with no oversize surcharge.
func UnitPrice(item models.LineItem) float64 {
	price := float64(adultBasePrice)
	if strings.Contains(item.Size, "yr") {
		price = childBasePrice
	}
	if item.IsLongSleeve {
		price += longSleeveSurcharge
	}
	if item.IsMuslimah {
		price += muslimahSurcharge
	}
	switch item.Size {
	case "4XL", "5XL", "6XL":
		price += 5
	case "7XL", "8XL":
		price += 10
	}
	return price
}

// Totals recomputes the order-level figures from the items. Items with
// an empty size are incomplete and excluded from the subtotal. Quantity
// defaults to 1 and unit price to the table price when unset.
func Totals(order *models.Order) (subtotal, deliveryFee, grandTotal float64) {
	for _, it := range order.Items {
		if it.Size == "" {
			continue
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit := it.UnitPrice
		if unit <= 0 {
			unit = UnitPrice(it)
		}
		lineTotal := it.LineTotal
		if lineTotal <= 0 {
			lineTotal = unit * float64(qty)
		}
		subtotal += lineTotal
	}
	if order.Fulfillment == models.FulfillmentDelivery {
		deliveryFee = DeliveryFee
	}
	return subtotal, deliveryFee, subtotal + deliveryFee
}
