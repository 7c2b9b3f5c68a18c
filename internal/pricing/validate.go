package pricing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/teamjersey/order-intake/pkg/models"
)

// phonePattern is deliberately loose: it gates obvious garbage, nothing
// more. At least 6 characters drawn from digits, +, -, parentheses and
// spaces.
var phonePattern = regexp.MustCompile(`^[0-9+\-() ]{6,}$`)

// ValidationError is a user-facing input problem. It never reaches
// storage; the storage layer re-derives totals on its own and does not
// assume the client validated.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks an order before submission, short-circuiting on the
// first failure. Item problems name the item by its 1-based position.
func Validate(order *models.Order) error {
	if strings.TrimSpace(order.BuyerName) == "" {
		return validationErrorf("buyer name is required")
	}
	if !phonePattern.MatchString(strings.TrimSpace(order.ContactPhone)) {
		return validationErrorf("contact phone is invalid")
	}
	if len(order.Items) == 0 {
		return validationErrorf("order has no items")
	}
	for i, it := range order.Items {
		if strings.TrimSpace(it.Size) == "" {
			return validationErrorf("item %d: size is required", i+1)
		}
		number := strings.TrimSpace(it.Number)
		if number != "" {
			if len(number) > 3 || !isDigits(number) {
				return validationErrorf("item %d: jersey number must be 1-3 digits", i+1)
			}
			n, err := strconv.Atoi(number)
			if err != nil || n < 0 || n > 100 {
				return validationErrorf("item %d: jersey number must be between 0 and 100", i+1)
			}
		}
	}
	if order.Fulfillment == models.FulfillmentDelivery && strings.TrimSpace(order.DeliveryAddress) == "" {
		return validationErrorf("delivery address is required for delivery orders")
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
