package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/store"
)

// Sink is an append-only record of (timestamp, message) entries.
type Sink interface {
	Record(ctx context.Context, message string) error
}

// LogHeader is the header row of the log sheet.
var LogHeader = models.Row{"Fecha", "Mensaje"}

// TableSink appends entries to a sheet of a TableStore, creating it on first use.
// A failed creation is retried by the next Record.
type TableSink struct {
	store store.TableStore
	sheet string
	now   func() time.Time

	mu    sync.Mutex
	ready bool
}

func NewTableSink(s store.TableStore, sheet string, now func() time.Time) *TableSink {
	if now == nil {
		now = time.Now
	}
	return &TableSink{store: s, sheet: sheet, now: now}
}

func (s *TableSink) Record(ctx context.Context, message string) error {
	if err := s.ensureSheet(ctx); err != nil {
		return fmt.Errorf("log sink unavailable: %w", err)
	}
	row := models.Row{dates.Format(s.now(), dates.ModeDateTime), message}
	if err := s.store.AppendRows(ctx, s.sheet, []models.Row{row}); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

func (s *TableSink) ensureSheet(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.store.EnsureSheet(ctx, s.sheet, LogHeader); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// NopSink drops every entry.
type NopSink struct{}

func (NopSink) Record(context.Context, string) error { return nil }
