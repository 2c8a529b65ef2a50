package models

// Row is one table row. Cells hold scalars: string, int64, float64, bool, time.Time or nil.
type Row []any

// Cell returns the cell at index i, or nil when the row is shorter.
func (r Row) Cell(i int) any {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
