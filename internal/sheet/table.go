// Package sheet is the flat row store behind the order service. It keeps
// the spreadsheet shape of the data: one header row naming columns,
// followed by one row per line item. Cells are plain strings; all typing
// happens in the codec.
package sheet

import (
	"context"
	"errors"
)

// Row is one stored row of string cells. Rows written under an older,
// narrower header may be shorter than the current header.
type Row []string

var (
	ErrRowOutOfRange  = errors.New("row position out of range")
	ErrCellOutOfRange = errors.New("cell position out of range")
)

// Table is a positional row store. Data row positions are zero-based and
// exclude the header; deleting a row shifts every later row up by one,
// exactly like removing a spreadsheet row.
//
// Table implementations do not serialize concurrent writers; the service
// assumes a single in-flight write per table (request-scoped access
// through the reconciler).
type Table interface {
	// Header returns the current header row, or an empty row when the
	// table has never been written.
	Header(ctx context.Context) (Row, error)

	// SetHeader writes the header row, replacing any existing one.
	SetHeader(ctx context.Context, header Row) error

	// Rows returns every data row in position order.
	Rows(ctx context.Context) ([]Row, error)

	// UpdateRow replaces the data row at pos in full.
	UpdateRow(ctx context.Context, pos int, row Row) error

	// AppendRows adds rows after the current end, preserving their order.
	AppendRows(ctx context.Context, rows []Row) error

	// UpdateCell overwrites a single cell of the data row at pos,
	// leaving every other cell untouched. Rows shorter than col are
	// widened with empty cells first.
	UpdateCell(ctx context.Context, pos, col int, value string) error

	// DeleteRow removes the data row at pos.
	DeleteRow(ctx context.Context, pos int) error
}

// Pinger is implemented by backends with a liveness check worth exposing
// on the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
