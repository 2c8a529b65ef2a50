package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one instrument entry ("casa") as returned by the upstream rate APIs.
// The current endpoint fills FechaActualizacion, the historical one fills Fecha.
type Quote struct {
	Casa               string     `json:"casa"`
	Nombre             string     `json:"nombre,omitempty"`
	Moneda             string     `json:"moneda,omitempty"`
	Compra             FlexNumber `json:"compra"`
	Venta              FlexNumber `json:"venta"`
	FechaActualizacion string     `json:"fechaActualizacion,omitempty"`
	Fecha              string     `json:"fecha,omitempty"`
}

// FlexNumber accepts a JSON number, a numeric string or null.
type FlexNumber struct {
	Raw string
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.Raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n.Raw = strings.TrimSpace(s)
		return nil
	}
	n.Raw = string(data)
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if n.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(n.Raw)
}

// Decimal returns the parsed value; anything non-numeric or negative yields zero.
func (n FlexNumber) Decimal() decimal.Decimal {
	if n.Raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(n.Raw, ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Pair is a buy/sell price pair.
type Pair struct {
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}

// ExchangeRateRecord is the canonical in-memory view of one day of quotes.
// Spreads are ratios (0.5 means 50%).
type ExchangeRateRecord struct {
	Official  Pair `json:"official"`
	Blue      Pair `json:"blue"`
	MEP       Pair `json:"mep"`
	Crypto    Pair `json:"crypto"`
	Wholesale Pair `json:"wholesale"`

	BlueOfficialSpread decimal.Decimal `json:"blue_official_spread"`
	BlueMEPSpread      decimal.Decimal `json:"blue_mep_spread"`

	// SourceTimestamp is the upstream "as of" instant, already aligned to civil time.
	SourceTimestamp time.Time `json:"source_timestamp"`
}

// Prices returns the ten price fields in table column order.
func (r ExchangeRateRecord) Prices() []decimal.Decimal {
	return []decimal.Decimal{
		r.Official.Buy, r.Official.Sell,
		r.Blue.Buy, r.Blue.Sell,
		r.MEP.Buy, r.MEP.Sell,
		r.Crypto.Buy, r.Crypto.Sell,
		r.Wholesale.Buy, r.Wholesale.Sell,
	}
}
