package main

import (
	"fmt"
	"strings"

	"github.com/teamjersey/order-intake/internal/events"
)

// renderNotification formats an order the way the operator used to see
// it in the notification email: buyer details, fulfillment, one line per
// item, then the payment summary.
func renderNotification(event events.OrderReceivedEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New Jersey Order - %s\n", orDash(event.BuyerName))
	fmt.Fprintf(&b, "Order ID: %s\n", event.OrderID)
	fmt.Fprintf(&b, "Contact Phone: %s\n", orDash(event.ContactPhone))

	if event.Fulfillment == "delivery" {
		fmt.Fprintf(&b, "Fulfillment: Delivery to %s\n", orDash(event.DeliveryAddress))
	} else {
		b.WriteString("Fulfillment: Pickup\n")
	}

	b.WriteString("Items:\n")
	for _, it := range event.Items {
		options := itemOptions(it)
		fmt.Fprintf(&b, "  #%s %s size %s x%d @ %.2f (%s) = %.2f\n",
			orDash(it.Number), orDash(it.NameOnJersey), orDash(it.Size),
			it.Quantity, it.UnitPrice, options, it.LineTotal)
	}

	fmt.Fprintf(&b, "Subtotal: %.2f\n", event.Subtotal)
	fmt.Fprintf(&b, "Delivery Fee: %.2f\n", event.DeliveryFee)
	fmt.Fprintf(&b, "Grand Total: %.2f\n", event.GrandTotal)
	fmt.Fprintf(&b, "Paid: %s", yesNo(event.Paid))

	return b.String()
}

func itemOptions(it events.OrderReceivedItem) string {
	var options []string
	if it.IsLongSleeve {
		options = append(options, "Long Sleeve")
	}
	if it.IsMuslimah {
		options = append(options, "Muslimah")
	}
	if len(options) == 0 {
		return "Standard"
	}
	return strings.Join(options, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
