package sheet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostgresTable persists the sheet in Postgres while keeping its flat
// shape: a single-row header table and a positional row table whose
// cells are a text array. Positions are contiguous from zero and shift
// on delete, matching MemoryTable semantics exactly.
type PostgresTable struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewPostgresTable(db *sql.DB, logger *logrus.Logger) (*PostgresTable, error) {
	t := &PostgresTable{db: db, logger: logger}
	if err := t.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}
	logger.Info("Sheet tables ready")
	return t, nil
}

func (t *PostgresTable) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sheet_header (
			id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			cells TEXT[] NOT NULL
		)`,
		// Deferred uniqueness so the shift-down after a delete can pass
		// through transiently colliding positions inside one transaction.
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			pos INT NOT NULL UNIQUE DEFERRABLE INITIALLY DEFERRED,
			cells TEXT[] NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := t.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (t *PostgresTable) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *PostgresTable) Header(ctx context.Context) (Row, error) {
	var cells []string
	err := t.db.QueryRowContext(ctx,
		"SELECT cells FROM sheet_header WHERE id = 1").Scan(pq.Array(&cells))
	if err == sql.ErrNoRows {
		return Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select header: %w", err)
	}
	return Row(cells), nil
}

func (t *PostgresTable) SetHeader(ctx context.Context, header Row) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO sheet_header (id, cells) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET cells = EXCLUDED.cells`,
		pq.Array([]string(header)))
	if err != nil {
		return fmt.Errorf("upsert header: %w", err)
	}
	return nil
}

func (t *PostgresTable) Rows(ctx context.Context) ([]Row, error) {
	rows, err := t.db.QueryContext(ctx,
		"SELECT cells FROM sheet_rows ORDER BY pos")
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var cells []string
		if err := rows.Scan(pq.Array(&cells)); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, Row(cells))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (t *PostgresTable) UpdateRow(ctx context.Context, pos int, row Row) error {
	res, err := t.db.ExecContext(ctx,
		"UPDATE sheet_rows SET cells = $2 WHERE pos = $1",
		pos, pq.Array([]string(row)))
	if err != nil {
		return fmt.Errorf("update row %d: %w", pos, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row %d: %w", pos, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, pos)
	}
	return nil
}

func (t *PostgresTable) AppendRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(pos) + 1, 0) FROM sheet_rows").Scan(&next)
	if err != nil {
		return fmt.Errorf("next position: %w", err)
	}

	for i, row := range rows {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO sheet_rows (pos, cells) VALUES ($1, $2)",
			next+i, pq.Array([]string(row)))
		if err != nil {
			return fmt.Errorf("insert row at %d: %w", next+i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (t *PostgresTable) UpdateCell(ctx context.Context, pos, col int, value string) error {
	if col < 0 {
		return fmt.Errorf("%w: %d", ErrCellOutOfRange, col)
	}

	var cells []string
	err := t.db.QueryRowContext(ctx,
		"SELECT cells FROM sheet_rows WHERE pos = $1", pos).Scan(pq.Array(&cells))
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, pos)
	}
	if err != nil {
		return fmt.Errorf("select row %d: %w", pos, err)
	}

	for len(cells) <= col {
		cells = append(cells, "")
	}
	cells[col] = value

	_, err = t.db.ExecContext(ctx,
		"UPDATE sheet_rows SET cells = $2 WHERE pos = $1",
		pos, pq.Array(cells))
	if err != nil {
		return fmt.Errorf("update cell %d/%d: %w", pos, col, err)
	}
	return nil
}

func (t *PostgresTable) DeleteRow(ctx context.Context, pos int) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM sheet_rows WHERE pos = $1", pos)
	if err != nil {
		return fmt.Errorf("delete row %d: %w", pos, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete row %d: %w", pos, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, pos)
	}

	// Keep positions contiguous, like removing a spreadsheet row.
	_, err = tx.ExecContext(ctx,
		"UPDATE sheet_rows SET pos = pos - 1 WHERE pos > $1", pos)
	if err != nil {
		return fmt.Errorf("shift rows after %d: %w", pos, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
