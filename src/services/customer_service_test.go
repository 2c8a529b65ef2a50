package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/parsers/customers"
	"github.com/username/dolarhistorico/src/processors"
	"github.com/username/dolarhistorico/src/store"
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) Record(_ context.Context, message string) error {
	s.messages = append(s.messages, message)
	return nil
}

func customerXML(entries ...map[string]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Clientes>`)
	for _, e := range entries {
		b.WriteString("<Cliente>")
		for _, name := range processors.CustomerColumns {
			fmt.Fprintf(&b, "<%s>%s</%s>", name, e[name], name)
		}
		b.WriteString("</Cliente>")
	}
	b.WriteString("</Clientes>")
	return b.String()
}

func newCustomerService(mem *store.Memory, sink logger.Sink) *CustomerService {
	return NewCustomerService(mem, "Clientes", customers.NewParser(), sink, logger.Discard())
}

func TestCustomerImportReplacesRowsAndReportsDuplicates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.EnsureSheet(ctx, "Clientes", processors.CustomersHeader()))
	require.NoError(t, mem.AppendRows(ctx, "Clientes", []models.Row{{"viejo"}, {"viejo"}, {"viejo"}}))

	doc := customerXML(
		map[string]string{"CodCliente": "4521", "RazonSocial": "Uno", "Telefono": "+54 11 4444-5555", "ControlaCredito": "Verdadero"},
		map[string]string{"CodCliente": "17", "RazonSocial": "=HIPERVINCULO(x)", "ControlaCredito": "Falso"},
		map[string]string{"CodCliente": "4521", "RazonSocial": "Dos"},
	)
	svc := newCustomerService(mem, &recordingSink{})
	report, err := svc.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, []int64{4521}, report.Duplicates)
	assert.Equal(t, []int{2, 4}, report.DuplicateRows)

	rows, err := mem.ReadRange(ctx, "Clientes", 1, 100)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "CodCliente", rows[0][0])
	assert.Equal(t, int64(4521), rows[1][0])
	assert.Equal(t, true, rows[1][23])
	assert.Equal(t, "+54 11 4444-5555", rows[1][12])
	assert.Equal(t, "=HIPERVINCULO(x)", rows[2][1])
	assert.Equal(t, false, rows[2][23])
	assert.Equal(t, "Dos", rows[3][1])
}

func TestCustomerImportCreatesSheet(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newCustomerService(mem, nil)

	report, err := svc.Import(ctx, strings.NewReader(customerXML(map[string]string{"CodCliente": "1"})))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Empty(t, report.Duplicates)

	last, err := mem.LastRow(ctx, "Clientes")
	require.NoError(t, err)
	assert.Equal(t, 2, last)
}

func TestCustomerImportRejectsWrongSchemaBeforeWriting(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.EnsureSheet(ctx, "Clientes", processors.CustomersHeader()))
	require.NoError(t, mem.AppendRows(ctx, "Clientes", []models.Row{{"existente"}}))
	sink := &recordingSink{}
	svc := newCustomerService(mem, sink)

	doc := `<Clientes><Cliente><CodCliente>1</CodCliente></Cliente></Clientes>`
	_, err := svc.Import(ctx, strings.NewReader(doc))
	require.ErrorIs(t, err, apperrors.ErrFormat)

	last, err := mem.LastRow(ctx, "Clientes")
	require.NoError(t, err)
	assert.Equal(t, 2, last)
	require.Len(t, sink.messages, 1)
	assert.Contains(t, sink.messages[0], "1 fields")
}
