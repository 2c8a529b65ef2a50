// Package customers reads the customer XML export: a root element whose children are
// customer entries, each holding a fixed set of leaf fields. The export is usually
// ISO-8859-1 encoded and declares so in its XML prolog.
package customers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/models"
)

// FieldCount is the number of leaf fields every entry must carry.
const FieldCount = 31

// Parser implements XML decoding for customer exports.
type Parser struct{}

// NewParser creates a new instance of the Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes every entry of the export. An entry with a field count other than
// FieldCount rejects the whole document with ErrFormat.
func (p *Parser) Parse(r io.Reader) ([]models.CustomerEntry, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		entries   []models.CustomerEntry
		current   models.CustomerEntry
		fieldName string
		text      strings.Builder
		depth     int
		sawRoot   bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: customer export is not valid XML: %v", apperrors.ErrFormat, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				sawRoot = true
			case 2:
				current = models.CustomerEntry{Fields: make([]models.CustomerField, 0, FieldCount)}
			case 3:
				fieldName = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 3 {
				text.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 3:
				current.Fields = append(current.Fields, models.CustomerField{
					Name:  fieldName,
					Value: strings.TrimSpace(text.String()),
				})
			case 2:
				if len(current.Fields) != FieldCount {
					return nil, fmt.Errorf("%w: customer entry %d has %d fields, expected %d",
						apperrors.ErrFormat, len(entries)+1, len(current.Fields), FieldCount)
				}
				entries = append(entries, current)
			}
			depth--
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: customer export has no root element", apperrors.ErrFormat)
	}
	return entries, nil
}
