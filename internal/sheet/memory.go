package sheet

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable is an in-process Table. It backs tests and the service's
// standalone mode; contents are lost on restart.
type MemoryTable struct {
	mu     sync.RWMutex
	header Row
	rows   []Row
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{}
}

func (t *MemoryTable) Header(ctx context.Context) (Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append(Row{}, t.header...), nil
}

func (t *MemoryTable) SetHeader(ctx context.Context, header Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.header = append(Row{}, header...)
	return nil
}

func (t *MemoryTable) Rows(ctx context.Context) ([]Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append(Row{}, r...)
	}
	return rows, nil
}

func (t *MemoryTable) UpdateRow(ctx context.Context, pos int, row Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pos < 0 || pos >= len(t.rows) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, pos, len(t.rows))
	}
	t.rows[pos] = append(Row{}, row...)
	return nil
}

func (t *MemoryTable) AppendRows(ctx context.Context, rows []Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		t.rows = append(t.rows, append(Row{}, r...))
	}
	return nil
}

func (t *MemoryTable) UpdateCell(ctx context.Context, pos, col int, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pos < 0 || pos >= len(t.rows) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, pos, len(t.rows))
	}
	if col < 0 {
		return fmt.Errorf("%w: %d", ErrCellOutOfRange, col)
	}
	row := t.rows[pos]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	t.rows[pos] = row
	return nil
}

func (t *MemoryTable) DeleteRow(ctx context.Context, pos int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pos < 0 || pos >= len(t.rows) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, pos, len(t.rows))
	}
	t.rows = append(t.rows[:pos], t.rows[pos+1:]...)
	return nil
}
