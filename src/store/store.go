// Package store defines the tabular document store the rates history and the
// customer import are written to. Rows and columns are 1-based, like a spreadsheet.
package store

import (
	"context"
	"fmt"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/models"
)

// LessFunc orders two rows for SortRange.
type LessFunc func(a, b models.Row) bool

type TableStore interface {
	HasSheet(ctx context.Context, sheet string) (bool, error)
	// EnsureSheet creates the sheet when absent and writes header into row 1 when the sheet is empty.
	EnsureSheet(ctx context.Context, sheet string, header models.Row) error
	// ReadRange returns rows fromRow..toRow inclusive, clipped to the last used row.
	ReadRange(ctx context.Context, sheet string, fromRow, toRow int) ([]models.Row, error)
	// WriteRange overwrites consecutive rows starting at fromRow, growing the sheet if needed.
	WriteRange(ctx context.Context, sheet string, fromRow int, rows []models.Row) error
	AppendRows(ctx context.Context, sheet string, rows []models.Row) error
	// DeleteRows removes count rows starting at fromRow; later rows shift up.
	DeleteRows(ctx context.Context, sheet string, fromRow, count int) error
	// SortRange stably sorts every row from fromRow to the last row.
	SortRange(ctx context.Context, sheet string, fromRow int, less LessFunc) error
	LastRow(ctx context.Context, sheet string) (int, error)
	LastColumn(ctx context.Context, sheet string) (int, error)
	Close() error
}

// SheetMissing wraps apperrors.ErrSheetMissing with the sheet name.
func SheetMissing(sheet string) error {
	return fmt.Errorf("%w: %s", apperrors.ErrSheetMissing, sheet)
}

// ValidateRow rejects row indexes below 1.
func ValidateRow(row int) error {
	if row < 1 {
		return fmt.Errorf("store: row index %d out of range", row)
	}
	return nil
}
