package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/store"
)

// SheetStore is a store.TableStore backed by the sheets and sheet_rows tables.
// Every mutating call runs in its own transaction.
type SheetStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.TableStore = (*SheetStore)(nil)

// NewSheetStore wraps an open, migrated database.
func NewSheetStore(db *sql.DB) *SheetStore {
	return &SheetStore{db: db, now: time.Now}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sheetExists(ctx context.Context, q querier, sheet string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM sheets WHERE name = ?`, sheet).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up sheet %s: %w", sheet, err)
	}
	return n > 0, nil
}

func requireSheet(ctx context.Context, q querier, sheet string) error {
	ok, err := sheetExists(ctx, q, sheet)
	if err != nil {
		return err
	}
	if !ok {
		return store.SheetMissing(sheet)
	}
	return nil
}

func lastRow(ctx context.Context, q querier, sheet string) (int, error) {
	var last sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT MAX(row_num) FROM sheet_rows WHERE sheet = ?`, sheet).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to read last row of %s: %w", sheet, err)
	}
	return int(last.Int64), nil
}

func (s *SheetStore) HasSheet(ctx context.Context, sheet string) (bool, error) {
	return sheetExists(ctx, s.db, sheet)
}

func (s *SheetStore) EnsureSheet(ctx context.Context, sheet string, header models.Row) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stamp := s.now().UTC().Format(time.RFC3339)
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sheets (name, created_at) VALUES (?, ?)`, sheet, stamp); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if len(header) == 0 {
			return nil
		}
		last, err := lastRow(ctx, tx, sheet)
		if err != nil {
			return err
		}
		if last > 0 {
			return nil
		}
		return s.upsertRow(ctx, tx, sheet, 1, header)
	})
}

func (s *SheetStore) ReadRange(ctx context.Context, sheet string, fromRow, toRow int) ([]models.Row, error) {
	if err := store.ValidateRow(fromRow); err != nil {
		return nil, err
	}
	if err := requireSheet(ctx, s.db, sheet); err != nil {
		return nil, err
	}
	last, err := lastRow(ctx, s.db, sheet)
	if err != nil {
		return nil, err
	}
	if toRow > last {
		toRow = last
	}
	out := make([]models.Row, 0)
	if toRow < fromRow {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_num, cells FROM sheet_rows WHERE sheet = ? AND row_num BETWEEN ? AND ? ORDER BY row_num`,
		sheet, fromRow, toRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", sheet, err)
	}
	defer rows.Close()

	// Rows never written (gaps left by WriteRange) read back empty.
	byNum := make(map[int]models.Row)
	for rows.Next() {
		var num int
		var cells string
		if err := rows.Scan(&num, &cells); err != nil {
			return nil, err
		}
		row, err := decodeCells(cells)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", sheet, num, err)
		}
		byNum[num] = row
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := fromRow; i <= toRow; i++ {
		if row, ok := byNum[i]; ok {
			out = append(out, row)
		} else {
			out = append(out, models.Row{})
		}
	}
	return out, nil
}

func (s *SheetStore) WriteRange(ctx context.Context, sheet string, fromRow int, rows []models.Row) error {
	if err := store.ValidateRow(fromRow); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireSheet(ctx, tx, sheet); err != nil {
			return err
		}
		for i, row := range rows {
			if err := s.upsertRow(ctx, tx, sheet, fromRow+i, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SheetStore) AppendRows(ctx context.Context, sheet string, rows []models.Row) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireSheet(ctx, tx, sheet); err != nil {
			return err
		}
		last, err := lastRow(ctx, tx, sheet)
		if err != nil {
			return err
		}
		for i, row := range rows {
			if err := s.upsertRow(ctx, tx, sheet, last+1+i, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SheetStore) DeleteRows(ctx context.Context, sheet string, fromRow, count int) error {
	if err := store.ValidateRow(fromRow); err != nil {
		return err
	}
	if count <= 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireSheet(ctx, tx, sheet); err != nil {
			return err
		}
		end := fromRow + count
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sheet_rows WHERE sheet = ? AND row_num >= ? AND row_num < ?`, sheet, fromRow, end); err != nil {
			return fmt.Errorf("failed to delete rows of %s: %w", sheet, err)
		}
		// Shift through negative numbers so the primary key never collides mid-update.
		if _, err := tx.ExecContext(ctx,
			`UPDATE sheet_rows SET row_num = -(row_num - ?) WHERE sheet = ? AND row_num >= ?`, count, sheet, end); err != nil {
			return fmt.Errorf("failed to shift rows of %s: %w", sheet, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sheet_rows SET row_num = -row_num WHERE sheet = ? AND row_num < 0`, sheet); err != nil {
			return fmt.Errorf("failed to shift rows of %s: %w", sheet, err)
		}
		return nil
	})
}

func (s *SheetStore) SortRange(ctx context.Context, sheet string, fromRow int, less store.LessFunc) error {
	if err := store.ValidateRow(fromRow); err != nil {
		return err
	}
	part, err := s.ReadRange(ctx, sheet, fromRow, int(^uint(0)>>1))
	if err != nil {
		return err
	}
	if len(part) < 2 {
		return nil
	}
	sort.SliceStable(part, func(i, j int) bool { return less(part[i], part[j]) })
	return s.WriteRange(ctx, sheet, fromRow, part)
}

func (s *SheetStore) LastRow(ctx context.Context, sheet string) (int, error) {
	if err := requireSheet(ctx, s.db, sheet); err != nil {
		return 0, err
	}
	return lastRow(ctx, s.db, sheet)
}

func (s *SheetStore) LastColumn(ctx context.Context, sheet string) (int, error) {
	if err := requireSheet(ctx, s.db, sheet); err != nil {
		return 0, err
	}
	var width sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(width) FROM sheet_rows WHERE sheet = ?`, sheet).Scan(&width)
	if err != nil {
		return 0, fmt.Errorf("failed to read last column of %s: %w", sheet, err)
	}
	return int(width.Int64), nil
}

func (s *SheetStore) Close() error {
	return s.db.Close()
}

func (s *SheetStore) upsertRow(ctx context.Context, tx *sql.Tx, sheet string, rowNum int, row models.Row) error {
	cells, err := encodeCells(row)
	if err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, rowNum, err)
	}
	query := `
		INSERT INTO sheet_rows (sheet, row_num, width, cells, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sheet, row_num) DO UPDATE SET
			width = excluded.width,
			cells = excluded.cells,
			updated_at = excluded.updated_at`
	_, err = tx.ExecContext(ctx, query, sheet, rowNum, len(row), cells, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

func (s *SheetStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
