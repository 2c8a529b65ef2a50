package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/username/dolarhistorico/src/models"
)

// Cell kinds persisted alongside each value so a row reads back with the same Go types it was written with.
const (
	kindNull   = "n"
	kindString = "s"
	kindInt    = "i"
	kindFloat  = "f"
	kindBool   = "b"
	kindTime   = "t"
)

type storedCell struct {
	Kind  string          `json:"k"`
	Value json.RawMessage `json:"v,omitempty"`
}

func encodeCells(row models.Row) (string, error) {
	cells := make([]storedCell, len(row))
	for i, v := range row {
		c, err := encodeCell(v)
		if err != nil {
			return "", fmt.Errorf("cell %d: %w", i+1, err)
		}
		cells[i] = c
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeCell(v any) (storedCell, error) {
	var kind string
	var value any
	switch x := v.(type) {
	case nil:
		return storedCell{Kind: kindNull}, nil
	case string:
		kind, value = kindString, x
	case int:
		kind, value = kindInt, int64(x)
	case int64:
		kind, value = kindInt, x
	case float64:
		kind, value = kindFloat, x
	case bool:
		kind, value = kindBool, x
	case time.Time:
		kind, value = kindTime, x.UTC().Format(time.RFC3339Nano)
	default:
		kind, value = kindString, fmt.Sprint(x)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return storedCell{}, err
	}
	return storedCell{Kind: kind, Value: raw}, nil
}

func decodeCells(data string) (models.Row, error) {
	var cells []storedCell
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return nil, fmt.Errorf("failed to decode stored row: %w", err)
	}
	row := make(models.Row, len(cells))
	for i, c := range cells {
		v, err := decodeCell(c)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i+1, err)
		}
		row[i] = v
	}
	return row, nil
}

func decodeCell(c storedCell) (any, error) {
	switch c.Kind {
	case kindNull:
		return nil, nil
	case kindString:
		var s string
		err := json.Unmarshal(c.Value, &s)
		return s, err
	case kindInt:
		var n int64
		err := json.Unmarshal(c.Value, &n)
		return n, err
	case kindFloat:
		var f float64
		err := json.Unmarshal(c.Value, &f)
		return f, err
	case kindBool:
		var b bool
		err := json.Unmarshal(c.Value, &b)
		return b, err
	case kindTime:
		var s string
		if err := json.Unmarshal(c.Value, &s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	default:
		return nil, fmt.Errorf("unknown cell kind %q", c.Kind)
	}
}
