package processors

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/models"
)

func sampleRecord() models.ExchangeRateRecord {
	return models.ExchangeRateRecord{
		Official:           models.Pair{Buy: dec("950"), Sell: dec("1000")},
		Blue:               models.Pair{Buy: dec("1480"), Sell: dec("1500")},
		MEP:                models.Pair{Buy: dec("1190.5"), Sell: dec("1200")},
		Wholesale:          models.Pair{Buy: dec("900"), Sell: dec("910.456")},
		BlueOfficialSpread: dec("0.5"),
		BlueMEPSpread:      dec("0.25"),
		SourceTimestamp:    time.Date(2024, time.March, 15, 18, 2, 0, 0, time.UTC),
	}
}

func TestEncodeRowLayout(t *testing.T) {
	date := civil.Date{Year: 2024, Month: time.March, Day: 15}
	modified := time.Date(2024, time.March, 15, 21, 0, 0, 0, time.UTC)

	row := EncodeRow(date, sampleRecord(), modified, PercentTwoDecimals)
	require.Len(t, row, RatesColumnCount)
	assert.Equal(t, models.Row{
		"Vie 15/03/2024",
		"950,00", "1.000,00",
		"1.480,00", "1.500,00",
		"1.190,50", "1.200,00",
		"0,00", "0,00",
		"900,00", "910,46",
		"50,00%", "25,00%",
		"15/03/24 15:02:00",
		"15/03/24 18:00:00",
	}, row)
	assert.Len(t, RatesHeader, RatesColumnCount)
}

func TestEncodeRowOneDecimalPercent(t *testing.T) {
	row := EncodeRow(civil.Date{Year: 2024, Month: time.March, Day: 15}, sampleRecord(), time.Now(), PercentOneDecimal)
	assert.Equal(t, "50,0%", row[ColBlueOfficialSpread])
	assert.Equal(t, "25,0%", row[ColBlueMEPSpread])
}

func TestEncodeRowWithoutSourceTimestamp(t *testing.T) {
	row := EncodeRow(civil.Date{Year: 2024, Month: time.March, Day: 15}, models.ExchangeRateRecord{}, time.Now(), PercentTwoDecimals)
	assert.Equal(t, "", row[ColSource])
	assert.Equal(t, "0,00%", row[ColBlueOfficialSpread])
}

func TestFormatPrice(t *testing.T) {
	tests := map[string]string{
		"0":          "0,00",
		"12.3":       "12,30",
		"999.999":    "1.000,00",
		"1234567.89": "1.234.567,89",
		"-1234.5":    "-1.234,50",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPrice(dec(in)), in)
	}
	assert.Equal(t, "1.234,5%", FormatPercent(decimal.RequireFromString("12.345"), PercentOneDecimal))
}

func TestDecodeDateKey(t *testing.T) {
	key, err := DecodeDateKey(models.Row{"Vie 15/03/2024", "1,00"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", key)

	key, err = DecodeDateKey(models.Row{"15/03/2024"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", key)

	key, err = DecodeDateKey(models.Row{time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", key)

	_, err = DecodeDateKey(models.Row{})
	assert.ErrorIs(t, err, apperrors.ErrFormat)
	_, err = DecodeDateKey(models.Row{"Fecha"})
	assert.ErrorIs(t, err, apperrors.ErrFormat)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := civil.Date{Year: 2023, Month: time.January, Day: 2}
	key, err := DecodeDateKey(EncodeRow(d, models.ExchangeRateRecord{}, time.Now(), PercentTwoDecimals))
	require.NoError(t, err)
	assert.Equal(t, "2023-01-02", key)
}

func TestByDateKey(t *testing.T) {
	assert.True(t, ByDateKey(models.Row{"Lun 31/12/2023"}, models.Row{"Mar 01/01/2024"}))
	assert.False(t, ByDateKey(models.Row{"Mar 01/01/2024"}, models.Row{"Lun 31/12/2023"}))
}
