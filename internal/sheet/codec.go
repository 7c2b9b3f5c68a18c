package sheet

import (
	"strconv"

	"github.com/teamjersey/order-intake/pkg/models"
)

// RowData is one line item with its order context fully resolved:
// every derived value (unit price, line total, paid flag) has already
// been computed by the caller. Encode writes it out verbatim.
type RowData struct {
	// LegacySingle marks a single-object upsert from the old form: the
	// multi-item columns (Quantity through GrandTotal) stay blank, as
	// that form always left them.
	LegacySingle bool

	Timestamp       string
	BuyerName       string
	Number          string
	Size            string
	NameOnJersey    string
	IsLongSleeve    bool
	IsMuslimah      bool
	Paid            bool
	ID              string
	Quantity        int
	UnitPrice       float64
	LineTotal       float64
	OrderID         string
	Subtotal        float64
	DeliveryFee     float64
	GrandTotal      float64
	Fulfillment     string
	DeliveryAddress string
	ContactPhone    string
}

// Encode lays a RowData out as a stored row under the given header.
// Cells are positioned by column-name lookup; columns the header does
// not carry are simply skipped. The legacy Price column always mirrors
// UnitPrice.
func Encode(idx ColumnIndex, data RowData) Row {
	row := make(Row, idx.Width())
	set := func(name, value string) {
		if i := idx.Col(name); i >= 0 {
			row[i] = value
		}
	}

	set(ColTimestamp, data.Timestamp)
	set(ColName, data.BuyerName)
	set(ColNumber, data.Number)
	set(ColSize, data.Size)
	set(ColNameOnJersey, data.NameOnJersey)
	set(ColLongSleeve, YesNo(data.IsLongSleeve))
	set(ColMuslimah, YesNo(data.IsMuslimah))
	set(ColPrice, FormatNumber(data.UnitPrice))
	set(ColPaid, YesNo(data.Paid))
	set(ColID, data.ID)
	if !data.LegacySingle {
		set(ColQuantity, strconv.Itoa(data.Quantity))
		set(ColUnitPrice, FormatNumber(data.UnitPrice))
		set(ColLineTotal, FormatNumber(data.LineTotal))
		set(ColOrderID, data.OrderID)
		set(ColSubtotal, FormatNumber(data.Subtotal))
		set(ColDeliveryFee, FormatNumber(data.DeliveryFee))
		set(ColGrandTotal, FormatNumber(data.GrandTotal))
	}
	set(ColFulfillment, data.Fulfillment)
	set(ColDeliveryAddress, data.DeliveryAddress)
	set(ColContactPhone, data.ContactPhone)
	return row
}

// Decode turns a stored row into the view served to list consumers.
// Every read defaults to empty when the row is shorter than the header
// or the column is absent; decoding never fails. Legacy and new field
// names are populated from the same cells.
func Decode(idx ColumnIndex, row Row) models.OrderView {
	cell := func(name string) string {
		i := idx.Col(name)
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	name := cell(ColName)
	return models.OrderView{
		Timestamp:    cell(ColTimestamp),
		Name:         name,
		Number:       cell(ColNumber),
		Size:         cell(ColSize),
		NameOnJersey: cell(ColNameOnJersey),
		IsLongSleeve: cell(ColLongSleeve),
		IsMuslimah:   cell(ColMuslimah),
		Price:        cell(ColPrice),
		Paid:         cell(ColPaid),
		ID:           cell(ColID),
		Quantity:     cell(ColQuantity),
		UnitPrice:    cell(ColUnitPrice),
		LineTotal:    cell(ColLineTotal),
		OrderID:      cell(ColOrderID),
		Subtotal:     cell(ColSubtotal),
		DeliveryFee:  cell(ColDeliveryFee),
		GrandTotal:   cell(ColGrandTotal),

		BuyerName:       name,
		Fulfillment:     cell(ColFulfillment),
		DeliveryAddress: cell(ColDeliveryAddress),
		ContactPhone:    cell(ColContactPhone),
	}
}

// YesNo is the stored encoding for boolean cells.
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// ToNumber parses a numeric cell leniently: empty or non-numeric input
// yields the fallback, never an error.
func ToNumber(s string, fallback float64) float64 {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return n
}

// ToInt is ToNumber for integer cells.
func ToInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// FormatNumber renders a numeric cell without a trailing ".0" for whole
// values.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
