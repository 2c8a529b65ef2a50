package processors

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/models"
)

// PercentPrecision selects how many decimals a spread cell carries.
type PercentPrecision int32

const (
	// PercentTwoDecimals is used when rows are prepared in bulk.
	PercentTwoDecimals PercentPrecision = 2
	// PercentOneDecimal is used by the in-place update of today's row.
	PercentOneDecimal PercentPrecision = 1
)

// Column positions of a stored rates row.
const (
	ColLabel = iota
	ColOfficialBuy
	ColOfficialSell
	ColBlueBuy
	ColBlueSell
	ColMEPBuy
	ColMEPSell
	ColCryptoBuy
	ColCryptoSell
	ColWholesaleBuy
	ColWholesaleSell
	ColBlueOfficialSpread
	ColBlueMEPSpread
	ColSource
	ColModified
	RatesColumnCount
)

// RatesHeader is the first row of the rates sheet.
var RatesHeader = models.Row{
	"Fecha",
	"Oficial Compra", "Oficial Venta",
	"Blue Compra", "Blue Venta",
	"MEP Compra", "MEP Venta",
	"Cripto Compra", "Cripto Venta",
	"Mayorista Compra", "Mayorista Venta",
	"Brecha Oficial", "Brecha MEP",
	"Fuente", "Modificado",
}

// EncodeRow renders one day of quotes into the stored column layout.
func EncodeRow(date civil.Date, rec models.ExchangeRateRecord, modifiedAt time.Time, p PercentPrecision) models.Row {
	row := make(models.Row, 0, RatesColumnCount)
	row = append(row, dates.FormatDate(date, dates.ModeLabel))
	for _, price := range rec.Prices() {
		row = append(row, FormatPrice(price))
	}
	row = append(row,
		FormatPercent(rec.BlueOfficialSpread, p),
		FormatPercent(rec.BlueMEPSpread, p),
	)
	source := ""
	if !rec.SourceTimestamp.IsZero() {
		source = dates.Format(rec.SourceTimestamp, dates.ModeDateTime)
	}
	row = append(row, source, dates.Format(modifiedAt, dates.ModeDateTime))
	return row
}

// DecodeDateKey re-derives the yyyy-mm-dd key of a stored row from its label cell.
func DecodeDateKey(row models.Row) (string, error) {
	switch v := row.Cell(ColLabel).(type) {
	case string:
		d, err := dates.ParseLabel(v)
		if err != nil {
			return "", err
		}
		return dates.FormatDate(d, dates.ModeKey), nil
	case time.Time:
		return dates.Format(v, dates.ModeKey), nil
	default:
		return "", fmt.Errorf("%w: row has no date label", apperrors.ErrFormat)
	}
}

// ByDateKey orders rows ascending by their date key; rows without one sort first.
func ByDateKey(a, b models.Row) bool {
	ka, _ := DecodeDateKey(a)
	kb, _ := DecodeDateKey(b)
	return ka < kb
}

// FormatPrice renders a price with two decimals, '.' thousands grouping and ',' decimal separator.
func FormatPrice(d decimal.Decimal) string {
	return formatLocale(d, 2)
}

// FormatPercent renders a ratio as a percentage, e.g. 0.5 -> "50,00%".
func FormatPercent(ratio decimal.Decimal, p PercentPrecision) string {
	return formatLocale(ratio.Shift(2), int32(p)) + "%"
}

func formatLocale(d decimal.Decimal, places int32) string {
	fixed := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if frac != "" {
		out += "," + frac
	}
	return out
}
