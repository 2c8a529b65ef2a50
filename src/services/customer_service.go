package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/processors"
	"github.com/username/dolarhistorico/src/security/validation"
	"github.com/username/dolarhistorico/src/store"
)

// CustomerService replaces the customers sheet with the content of an export.
type CustomerService struct {
	store  store.TableStore
	sheet  string
	parser CustomerParser
	sink   logger.Sink
	log    *slog.Logger
}

func NewCustomerService(s store.TableStore, sheet string, parser CustomerParser, sink logger.Sink, log *slog.Logger) *CustomerService {
	return &CustomerService{store: s, sheet: sheet, parser: parser, sink: sink, log: log}
}

// Import parses r, rewrites every data row of the customers sheet and reports repeated
// customer codes. A malformed export is rejected before anything is written.
func (s *CustomerService) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	entries, err := s.parser.Parse(r)
	if err != nil {
		s.record(ctx, fmt.Sprintf("Error al importar clientes: %v", err))
		return ImportReport{}, err
	}

	records, dups := processors.NormalizeCustomers(entries, s.log)
	rows := make([]models.Row, len(records))
	for i, rec := range records {
		rows[i] = rec.Row()
		// Values are stored as exported; suspicious cells are only reported.
		for _, finding := range validation.ScanRow(rows[i], processors.CustomerColumns) {
			s.log.Warn("Suspicious customer cell", "entry", i+1, "finding", finding.Error())
		}
	}

	if err := s.store.EnsureSheet(ctx, s.sheet, processors.CustomersHeader()); err != nil {
		return ImportReport{}, err
	}
	last, err := s.store.LastRow(ctx, s.sheet)
	if err != nil {
		return ImportReport{}, err
	}
	if last > 1 {
		if err := s.store.DeleteRows(ctx, s.sheet, 2, last-1); err != nil {
			return ImportReport{}, err
		}
	}
	if len(rows) > 0 {
		if err := s.store.AppendRows(ctx, s.sheet, rows); err != nil {
			return ImportReport{}, err
		}
	}

	report := ImportReport{
		Imported:      len(records),
		Duplicates:    dups,
		DuplicateRows: duplicateRows(records, dups),
	}
	if len(dups) > 0 {
		s.log.Warn("Customer import has repeated codes", "codes", dups, "rows", report.DuplicateRows)
	}
	s.log.Info("Customer import finished", "sheet", s.sheet, "imported", report.Imported, "duplicates", len(dups))
	return report, nil
}

func duplicateRows(records []models.CustomerRecord, dups []int64) []int {
	flagged := make(map[int64]bool, len(dups))
	for _, code := range dups {
		flagged[code] = true
	}
	rows := make([]int, 0)
	for i, rec := range records {
		if rec.CustomerCode != nil && flagged[*rec.CustomerCode] {
			rows = append(rows, i+2)
		}
	}
	return rows
}

func (s *CustomerService) record(ctx context.Context, message string) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, message); err != nil {
		s.log.Error("Failed to write log sink entry", "error", err)
	}
}
