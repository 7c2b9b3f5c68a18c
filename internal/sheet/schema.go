package sheet

import (
	"context"
	"fmt"
	"strings"
)

// Canonical column names. The header is append-only: new columns are
// added at the end and existing names and positions are never changed,
// so rows written by older deployments stay readable.
const (
	ColTimestamp       = "Timestamp"
	ColName            = "Name"
	ColNumber          = "Number"
	ColSize            = "Size"
	ColNameOnJersey    = "Name on Jersey"
	ColLongSleeve      = "Long Sleeve"
	ColMuslimah        = "Muslimah"
	ColPrice           = "Price"
	ColPaid            = "Paid"
	ColID              = "ID"
	ColQuantity        = "Quantity"
	ColUnitPrice       = "UnitPrice"
	ColLineTotal       = "LineTotal"
	ColOrderID         = "OrderId"
	ColSubtotal        = "Subtotal"
	ColDeliveryFee     = "DeliveryFee"
	ColGrandTotal      = "GrandTotal"
	ColFulfillment     = "Fulfillment"
	ColDeliveryAddress = "Delivery Address"
	ColContactPhone    = "Contact Phone"
)

// FullHeader is the complete column set, in canonical order. Only ever
// append to this list.
var FullHeader = Row{
	ColTimestamp,
	ColName,
	ColNumber,
	ColSize,
	ColNameOnJersey,
	ColLongSleeve,
	ColMuslimah,
	ColPrice,
	ColPaid,
	ColID,
	ColQuantity,
	ColUnitPrice,
	ColLineTotal,
	ColOrderID,
	ColSubtotal,
	ColDeliveryFee,
	ColGrandTotal,
	ColFulfillment,
	ColDeliveryAddress,
	ColContactPhone,
}

// ColumnIndex maps trimmed column names to zero-based positions in the
// stored header. Every cell access goes through a name lookup, never a
// fixed offset, so stored column order is irrelevant as long as the
// names match.
type ColumnIndex map[string]int

// Col returns the position of a named column, or -1 when the header does
// not carry it.
func (c ColumnIndex) Col(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}

// Width is the number of columns a full row spans.
func (c ColumnIndex) Width() int {
	max := 0
	for _, i := range c {
		if i+1 > max {
			max = i + 1
		}
	}
	return max
}

// EnsureHeader makes the table's header current and returns its index.
// A missing header is written as FullHeader. A header shorter than
// FullHeader (an older deployment) is extended in place: the existing
// prefix is kept byte for byte and the missing trailing columns are
// appended with their canonical names.
func EnsureHeader(ctx context.Context, table Table) (ColumnIndex, error) {
	header, err := table.Header(ctx)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if len(header) == 0 {
		header = append(Row{}, FullHeader...)
		if err := table.SetHeader(ctx, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	} else if len(header) < len(FullHeader) {
		extended := append(Row{}, header...)
		extended = append(extended, FullHeader[len(header):]...)
		if err := table.SetHeader(ctx, extended); err != nil {
			return nil, fmt.Errorf("extend header: %w", err)
		}
		header = extended
	}

	idx := make(ColumnIndex, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx, nil
}
