package store

import (
	"context"
	"sort"
	"sync"

	"github.com/username/dolarhistorico/src/models"
)

// Memory is an in-process TableStore. It backs tests and runs without DATABASE_PATH.
type Memory struct {
	mu     sync.Mutex
	sheets map[string][]models.Row
}

func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][]models.Row)}
}

func (m *Memory) HasSheet(ctx context.Context, sheet string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sheets[sheet]
	return ok, nil
}

func (m *Memory) EnsureSheet(ctx context.Context, sheet string, header models.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[sheet]
	if len(rows) == 0 && len(header) > 0 {
		rows = []models.Row{header.Clone()}
	}
	if rows == nil {
		rows = []models.Row{}
	}
	m.sheets[sheet] = rows
	return nil
}

func (m *Memory) ReadRange(ctx context.Context, sheet string, fromRow, toRow int) ([]models.Row, error) {
	if err := ValidateRow(fromRow); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.sheets[sheet]
	if !ok {
		return nil, SheetMissing(sheet)
	}
	if toRow > len(rows) {
		toRow = len(rows)
	}
	out := make([]models.Row, 0)
	for i := fromRow; i <= toRow; i++ {
		out = append(out, rows[i-1].Clone())
	}
	return out, nil
}

func (m *Memory) WriteRange(ctx context.Context, sheet string, fromRow int, rows []models.Row) error {
	if err := ValidateRow(fromRow); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sheets[sheet]
	if !ok {
		return SheetMissing(sheet)
	}
	for i, row := range rows {
		idx := fromRow - 1 + i
		for len(existing) <= idx {
			existing = append(existing, models.Row{})
		}
		existing[idx] = row.Clone()
	}
	m.sheets[sheet] = existing
	return nil
}

func (m *Memory) AppendRows(ctx context.Context, sheet string, rows []models.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sheets[sheet]
	if !ok {
		return SheetMissing(sheet)
	}
	for _, row := range rows {
		existing = append(existing, row.Clone())
	}
	m.sheets[sheet] = existing
	return nil
}

func (m *Memory) DeleteRows(ctx context.Context, sheet string, fromRow, count int) error {
	if err := ValidateRow(fromRow); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sheets[sheet]
	if !ok {
		return SheetMissing(sheet)
	}
	start := fromRow - 1
	if count <= 0 || start >= len(existing) {
		return nil
	}
	end := start + count
	if end > len(existing) {
		end = len(existing)
	}
	m.sheets[sheet] = append(existing[:start], existing[end:]...)
	return nil
}

func (m *Memory) SortRange(ctx context.Context, sheet string, fromRow int, less LessFunc) error {
	if err := ValidateRow(fromRow); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sheets[sheet]
	if !ok {
		return SheetMissing(sheet)
	}
	if fromRow > len(existing) {
		return nil
	}
	part := existing[fromRow-1:]
	sort.SliceStable(part, func(i, j int) bool { return less(part[i], part[j]) })
	return nil
}

func (m *Memory) LastRow(ctx context.Context, sheet string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sheets[sheet]
	if !ok {
		return 0, SheetMissing(sheet)
	}
	return len(existing), nil
}

func (m *Memory) LastColumn(ctx context.Context, sheet string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sheets[sheet]
	if !ok {
		return 0, SheetMissing(sheet)
	}
	last := 0
	for _, row := range existing {
		if len(row) > last {
			last = len(row)
		}
	}
	return last, nil
}

func (m *Memory) Close() error {
	return nil
}
