package models

import "time"

// CustomerRecord is one entry of the customer export after field coercion.
// Nil pointers mark values that could not be coerced; they become empty cells.
type CustomerRecord struct {
	CustomerCode      *int64
	BusinessName      string
	TradeName         string
	DocumentType      string
	DocumentNumber    string
	TaxID             string
	VATCondition      string
	Address           string
	City              string
	Province          string
	PostalCode        string
	Country           string
	Phone             string
	Email             string
	Contact           string
	SalesRepCode      *int64
	Zone              string
	Industry          string
	Category          string
	PriceList         string
	SaleCondition     string
	Carrier           string
	Notes             string
	CreditControl     bool
	ArrearsControl    bool
	Delinquent        bool
	BlockedForArrears bool
	AccountSuspended  bool
	TaxExempt         bool
	Enabled           bool
	ModifiedAt        *time.Time
}

// Row renders the record in the fixed 31-column output layout.
func (c CustomerRecord) Row() Row {
	return Row{
		intCell(c.CustomerCode),
		c.BusinessName,
		c.TradeName,
		c.DocumentType,
		c.DocumentNumber,
		c.TaxID,
		c.VATCondition,
		c.Address,
		c.City,
		c.Province,
		c.PostalCode,
		c.Country,
		c.Phone,
		c.Email,
		c.Contact,
		intCell(c.SalesRepCode),
		c.Zone,
		c.Industry,
		c.Category,
		c.PriceList,
		c.SaleCondition,
		c.Carrier,
		c.Notes,
		c.CreditControl,
		c.ArrearsControl,
		c.Delinquent,
		c.BlockedForArrears,
		c.AccountSuspended,
		c.TaxExempt,
		c.Enabled,
		timeCell(c.ModifiedAt),
	}
}

func intCell(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func timeCell(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}

// CustomerField is one leaf element of a customer entry, in document order.
type CustomerField struct {
	Name  string
	Value string
}

// CustomerEntry is one record of the customer XML export before coercion.
type CustomerEntry struct {
	Fields []CustomerField
}
