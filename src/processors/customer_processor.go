package processors

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/models"
)

// CustomerColumns lists the export's field names in positional order. They double as the
// header row of the customers sheet.
var CustomerColumns = []string{
	"CodCliente", "RazonSocial", "NombreFantasia", "TipoDocumento", "NroDocumento", "CUIT",
	"CondicionIVA", "Domicilio", "Localidad", "Provincia", "CodigoPostal", "Pais",
	"Telefono", "Email", "Contacto", "CodVendedor", "Zona", "Rubro", "Categoria",
	"ListaPrecios", "CondicionVenta", "Transporte", "Observaciones",
	"ControlaCredito", "ControlaMorosidad", "Moroso", "BloqueadoPorMora",
	"SuspendidoCtaCte", "ExentoPercepciones", "Habilitado", "FechaModificacion",
}

// CustomersHeader returns CustomerColumns as a table row.
func CustomersHeader() models.Row {
	row := make(models.Row, len(CustomerColumns))
	for i, name := range CustomerColumns {
		row[i] = name
	}
	return row
}

// dd/MM/yyyy hh:mm:ss a.m. / p.m.
var meridiemDateTime = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})\s+(\d{1,2}):(\d{2}):(\d{2})\s*([ap])\.\s?m\.$`)

// NormalizeCustomers coerces every entry positionally into a CustomerRecord and returns the
// customer codes that occur more than once, each reported once in first-seen order.
// Duplicates are still part of the returned records.
func NormalizeCustomers(entries []models.CustomerEntry, log *slog.Logger) ([]models.CustomerRecord, []int64) {
	records := make([]models.CustomerRecord, 0, len(entries))
	for i, entry := range entries {
		records = append(records, normalizeCustomer(entry, i+1, log))
	}
	return records, DuplicateCodes(records)
}

// DuplicateCodes finds repeated customer codes in a single pass. Records without a code are ignored.
func DuplicateCodes(records []models.CustomerRecord) []int64 {
	seen := make(map[int64]bool)
	reported := make(map[int64]bool)
	dups := make([]int64, 0)
	for _, rec := range records {
		if rec.CustomerCode == nil {
			continue
		}
		code := *rec.CustomerCode
		if seen[code] {
			if !reported[code] {
				reported[code] = true
				dups = append(dups, code)
			}
			continue
		}
		seen[code] = true
	}
	return dups
}

func normalizeCustomer(entry models.CustomerEntry, index int, log *slog.Logger) models.CustomerRecord {
	v := func(i int) string {
		if i < len(entry.Fields) {
			return entry.Fields[i].Value
		}
		return ""
	}
	integer := func(i int) *int64 {
		n, ok := ParseInt(v(i))
		if !ok && strings.TrimSpace(v(i)) != "" {
			log.Warn("Customer field is not an integer, leaving it empty",
				"entry", index, "field", CustomerColumns[i], "value", v(i))
		}
		return n
	}

	rec := models.CustomerRecord{
		CustomerCode:      integer(0),
		BusinessName:      v(1),
		TradeName:         v(2),
		DocumentType:      v(3),
		DocumentNumber:    v(4),
		TaxID:             v(5),
		VATCondition:      v(6),
		Address:           v(7),
		City:              v(8),
		Province:          v(9),
		PostalCode:        v(10),
		Country:           v(11),
		Phone:             v(12),
		Email:             v(13),
		Contact:           v(14),
		SalesRepCode:      integer(15),
		Zone:              v(16),
		Industry:          v(17),
		Category:          v(18),
		PriceList:         v(19),
		SaleCondition:     v(20),
		Carrier:           v(21),
		Notes:             v(22),
		CreditControl:     ParseBool(v(23)),
		ArrearsControl:    ParseBool(v(24)),
		Delinquent:        ParseBool(v(25)),
		BlockedForArrears: ParseBool(v(26)),
		AccountSuspended:  ParseBool(v(27)),
		TaxExempt:         ParseBool(v(28)),
		Enabled:           ParseBool(v(29)),
	}
	if raw := v(30); raw != "" {
		if t, ok := ParseMeridiemDateTime(raw); ok {
			rec.ModifiedAt = &t
		} else {
			log.Warn("Customer modification date not recognised, leaving it empty",
				"entry", index, "value", raw)
		}
	}
	return rec
}

// ParseInt coerces a decimal integer; anything else yields nil.
func ParseInt(s string) (*int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// ParseBool maps "Verdadero" (any case) to true. Empty, absent and every other value is false.
func ParseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "verdadero")
}

// ParseMeridiemDateTime parses "15/03/2024 02:57:00 p.m." as civil time.
func ParseMeridiemDateTime(s string) (time.Time, bool) {
	m := meridiemDateTime.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])
	if hour < 1 || hour > 12 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	hour %= 12
	if m[7] == "p" {
		hour += 12
	}
	wall := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if wall.Day() != day || int(wall.Month()) != month || wall.Year() != year {
		return time.Time{}, false
	}
	return dates.FromWallClock(wall), true
}
