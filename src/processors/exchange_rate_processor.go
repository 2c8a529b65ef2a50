package processors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/models"
)

// Instrument names ("casa") as reported upstream.
const (
	CasaOfficial  = "oficial"
	CasaBlue      = "blue"
	CasaMEP       = "bolsa"
	CasaCrypto    = "cripto"
	CasaWholesale = "mayorista"
)

// Source timestamps arrive with or without a zone designator; only the wall clock is kept.
var sourceLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// DecodeQuotes parses an upstream payload into typed quotes. Anything other than a
// non-empty JSON array of quote objects is reported as ErrDataUnavailable.
func DecodeQuotes(body []byte) ([]models.Quote, error) {
	var quotes []models.Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("%w: malformed rates payload: %v", apperrors.ErrDataUnavailable, err)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: empty rates payload", apperrors.ErrDataUnavailable)
	}
	return quotes, nil
}

// NormalizeCurrent builds a record from the current-snapshot shape, reading the
// as-of instant from fechaActualizacion.
func NormalizeCurrent(quotes []models.Quote) models.ExchangeRateRecord {
	return normalize(quotes, func(q models.Quote) string { return q.FechaActualizacion })
}

// NormalizeHistorical builds a record from the historical-by-day shape, reading the
// as-of instant from fecha.
func NormalizeHistorical(quotes []models.Quote) models.ExchangeRateRecord {
	return normalize(quotes, func(q models.Quote) string { return q.Fecha })
}

func normalize(quotes []models.Quote, stamp func(models.Quote) string) models.ExchangeRateRecord {
	var rec models.ExchangeRateRecord
	for _, q := range quotes {
		pair := models.Pair{Buy: q.Compra.Decimal(), Sell: q.Venta.Decimal()}
		switch strings.ToLower(strings.TrimSpace(q.Casa)) {
		case CasaOfficial:
			rec.Official = pair
		case CasaBlue:
			rec.Blue = pair
		case CasaMEP:
			rec.MEP = pair
		case CasaCrypto:
			rec.Crypto = pair
		case CasaWholesale:
			rec.Wholesale = pair
		default:
			continue
		}
		if ts, ok := ParseSourceTimestamp(stamp(q)); ok && ts.After(rec.SourceTimestamp) {
			rec.SourceTimestamp = ts
		}
	}
	rec.BlueOfficialSpread = Spread(rec.Blue.Sell, rec.Official.Sell)
	rec.BlueMEPSpread = Spread(rec.Blue.Sell, rec.MEP.Sell)
	return rec
}

// Spread returns (sell - base) / base as a ratio, or zero when base is zero.
func Spread(sell, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return sell.Sub(base).Div(base)
}

// ParseSourceTimestamp reads the wall clock of an upstream timestamp, ignoring any
// zone designator, and returns the matching civil-time instant.
func ParseSourceTimestamp(s string) (time.Time, bool) {
	s = stripZone(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range sourceLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dates.FromWallClock(t), true
		}
	}
	return time.Time{}, false
}

func stripZone(s string) string {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return s[:len(s)-1]
	}
	// Trailing ±hh:mm or ±hhmm after the clock part.
	if i := strings.LastIndexAny(s, "+-"); i > 10 && strings.ContainsAny(s[:i], "T ") {
		return s[:i]
	}
	return s
}
