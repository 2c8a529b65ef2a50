package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/processors"
	"github.com/username/dolarhistorico/src/store"
)

// firstDataRow is the first row below the header.
const firstDataRow = 2

// State describes the rates sheet relative to today.
type State int

const (
	NoExistingData State = iota
	LastRowIsToday
	LastRowIsYesterday
	LastRowIsOlder
)

func (s State) String() string {
	switch s {
	case NoExistingData:
		return "no_existing_data"
	case LastRowIsToday:
		return "last_row_is_today"
	case LastRowIsYesterday:
		return "last_row_is_yesterday"
	case LastRowIsOlder:
		return "last_row_is_older"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConfirmFunc asks whether the update planned for state may proceed. last is the
// date of the newest stored row and is the zero date when there is none.
type ConfirmFunc func(ctx context.Context, state State, last civil.Date) (bool, error)

// ReconcileConfig names the sheet the history lives in and the oldest date accepted.
type ReconcileConfig struct {
	Sheet   string
	MinDate civil.Date
}

// ReconcileService keeps one row per day in the rates sheet. It assumes it is the only
// writer: the existing-key snapshot taken at the start of a range is not re-checked.
type ReconcileService struct {
	cfg   ReconcileConfig
	store store.TableStore
	rates RateSource
	log   *slog.Logger
	now   func() time.Time
}

func NewReconcileService(cfg ReconcileConfig, s store.TableStore, rates RateSource, log *slog.Logger, now func() time.Time) *ReconcileService {
	if now == nil {
		now = time.Now
	}
	return &ReconcileService{cfg: cfg, store: s, rates: rates, log: log, now: now}
}

// Setup creates the rates sheet with its header when it does not exist yet.
func (s *ReconcileService) Setup(ctx context.Context) error {
	return s.store.EnsureSheet(ctx, s.cfg.Sheet, processors.RatesHeader)
}

// Today returns the current civil date.
func (s *ReconcileService) Today() civil.Date {
	return dates.Today(s.now())
}

// Status classifies the newest stored row against today.
func (s *ReconcileService) Status(ctx context.Context) (State, civil.Date, error) {
	state, last, _, err := s.status(ctx)
	return state, last, err
}

func (s *ReconcileService) status(ctx context.Context) (State, civil.Date, int, error) {
	if err := s.requireSheet(ctx); err != nil {
		return NoExistingData, civil.Date{}, 0, err
	}
	lastRow, err := s.store.LastRow(ctx, s.cfg.Sheet)
	if err != nil {
		return NoExistingData, civil.Date{}, 0, err
	}
	if lastRow < firstDataRow {
		return NoExistingData, civil.Date{}, lastRow, nil
	}

	rows, err := s.store.ReadRange(ctx, s.cfg.Sheet, lastRow, lastRow)
	if err != nil {
		return NoExistingData, civil.Date{}, lastRow, err
	}
	if len(rows) == 0 {
		return NoExistingData, civil.Date{}, lastRow, nil
	}
	key, err := processors.DecodeDateKey(rows[0])
	if err != nil {
		return NoExistingData, civil.Date{}, lastRow, fmt.Errorf("last row %d: %w", lastRow, err)
	}
	last, err := dates.ParseKey(key)
	if err != nil {
		return NoExistingData, civil.Date{}, lastRow, err
	}

	today := s.Today()
	switch {
	case last == today:
		return LastRowIsToday, last, lastRow, nil
	case last.After(today):
		return NoExistingData, last, lastRow, fmt.Errorf("%w: last stored date %s is after today", apperrors.ErrRange, key)
	case last == today.AddDays(-1):
		return LastRowIsYesterday, last, lastRow, nil
	default:
		return LastRowIsOlder, last, lastRow, nil
	}
}

// UpdateToToday brings the sheet up to today after confirm approves the plan for the current state.
func (s *ReconcileService) UpdateToToday(ctx context.Context, confirm ConfirmFunc) (Report, error) {
	started := s.now()
	state, last, lastRow, err := s.status(ctx)
	if err != nil {
		return Report{}, err
	}

	ok, err := confirm(ctx, state, last)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		s.log.Info("Update to today declined", "state", state.String())
		return Report{Cancelled: true}, nil
	}

	today := s.Today()
	yesterday := today.AddDays(-1)
	var report Report

	switch state {
	case NoExistingData:
		rec, err := s.rates.Current(ctx, false)
		if err != nil {
			return report, err
		}
		if err := s.appendDay(ctx, today, rec); err != nil {
			return report, err
		}
		report.Added = 1

	case LastRowIsToday:
		rec, err := s.rates.Current(ctx, true)
		if err != nil {
			return report, err
		}
		row := processors.EncodeRow(today, rec, s.now(), processors.PercentOneDecimal)
		if err := s.store.WriteRange(ctx, s.cfg.Sheet, lastRow, []models.Row{row}); err != nil {
			return report, err
		}
		report.Updated = 1

	case LastRowIsYesterday:
		// Today's row carries yesterday's closing values forward.
		rec, err := s.rates.Historical(ctx, yesterday)
		if err != nil {
			return report, err
		}
		if err := s.appendDay(ctx, today, rec); err != nil {
			return report, err
		}
		report.Added = 1

	case LastRowIsOlder:
		start := last.AddDays(1)
		if start.Before(s.cfg.MinDate) {
			start = s.cfg.MinDate
		}
		if !start.After(yesterday) {
			backfill, err := s.ReconcileRange(ctx, start, yesterday)
			if err != nil {
				return report, err
			}
			report.Updated, report.Added, report.Skipped = backfill.Updated, backfill.Added, backfill.Skipped
		}
		rec, err := s.rates.Current(ctx, false)
		if err != nil {
			return report, err
		}
		if err := s.appendDay(ctx, today, rec); err != nil {
			return report, err
		}
		report.Added++
	}

	report.Elapsed = s.now().Sub(started)
	s.log.Info("Update to today finished", "state", state.String(),
		"updated", report.Updated, "added", report.Added, "skipped", report.Skipped, "elapsed", report.Elapsed)
	return report, nil
}

type pendingUpdate struct {
	row  int
	data models.Row
}

// ReconcileRange writes one row per day in [start, end]. Days already stored are updated in
// place, the rest appended, and the data rows re-sorted by date. Days without upstream data
// are skipped. The range is validated before anything is read or written.
func (s *ReconcileService) ReconcileRange(ctx context.Context, start, end civil.Date) (Report, error) {
	started := s.now()
	if err := s.ValidateRange(start, end); err != nil {
		return Report{}, err
	}
	if err := s.requireSheet(ctx); err != nil {
		return Report{}, err
	}

	existing, err := s.snapshot(ctx)
	if err != nil {
		return Report{}, err
	}

	var (
		report  Report
		updates []pendingUpdate
		appends []models.Row
	)
	for day := start; !day.After(end); day = day.AddDays(1) {
		rec, err := s.rates.Historical(ctx, day)
		if err != nil {
			if !errors.Is(err, apperrors.ErrDataUnavailable) {
				return report, err
			}
			s.log.Warn("Skipping day without data", "day", day.String(), "error", err)
			report.Skipped++
			continue
		}
		row := processors.EncodeRow(day, rec, s.now(), processors.PercentTwoDecimals)
		if rowNum, ok := existing[day.String()]; ok {
			updates = append(updates, pendingUpdate{row: rowNum, data: row})
		} else {
			appends = append(appends, row)
		}
	}

	for _, u := range updates {
		if err := s.store.WriteRange(ctx, s.cfg.Sheet, u.row, []models.Row{u.data}); err != nil {
			return report, err
		}
		report.Updated++
	}
	if len(appends) > 0 {
		if err := s.store.AppendRows(ctx, s.cfg.Sheet, appends); err != nil {
			return report, err
		}
		report.Added = len(appends)
	}
	if report.Updated+report.Added > 0 {
		if err := s.store.SortRange(ctx, s.cfg.Sheet, firstDataRow, processors.ByDateKey); err != nil {
			return report, err
		}
	}

	report.Elapsed = s.now().Sub(started)
	s.log.Info("Range reconciliation finished", "start", start.String(), "end", end.String(),
		"updated", report.Updated, "added", report.Added, "skipped", report.Skipped, "elapsed", report.Elapsed)
	return report, nil
}

// ValidateRange checks start <= end and that both fall within [MinDate, today].
func (s *ReconcileService) ValidateRange(start, end civil.Date) error {
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", apperrors.ErrRange,
			dates.FormatDate(start, dates.ModeShort), dates.FormatDate(end, dates.ModeShort))
	}
	if start.Before(s.cfg.MinDate) {
		return fmt.Errorf("%w: %s is before %s", apperrors.ErrRange,
			dates.FormatDate(start, dates.ModeShort), dates.FormatDate(s.cfg.MinDate, dates.ModeShort))
	}
	if today := s.Today(); end.After(today) {
		return fmt.Errorf("%w: %s is after today", apperrors.ErrRange, dates.FormatDate(end, dates.ModeShort))
	}
	return nil
}

// Lookup returns the stored row for day, if any.
func (s *ReconcileService) Lookup(ctx context.Context, day civil.Date) (models.Row, bool, error) {
	if err := s.requireSheet(ctx); err != nil {
		return nil, false, err
	}
	existing, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	rowNum, ok := existing[day.String()]
	if !ok {
		return nil, false, nil
	}
	rows, err := s.store.ReadRange(ctx, s.cfg.Sheet, rowNum, rowNum)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// snapshot maps the date key of every data row to its row number. The first row wins
// when a key repeats.
func (s *ReconcileService) snapshot(ctx context.Context) (map[string]int, error) {
	lastRow, err := s.store.LastRow(ctx, s.cfg.Sheet)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]int)
	if lastRow < firstDataRow {
		return keys, nil
	}
	rows, err := s.store.ReadRange(ctx, s.cfg.Sheet, firstDataRow, lastRow)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		key, err := processors.DecodeDateKey(row)
		if err != nil {
			s.log.Debug("Ignoring row without a date", "row", firstDataRow+i)
			continue
		}
		if _, seen := keys[key]; !seen {
			keys[key] = firstDataRow + i
		}
	}
	return keys, nil
}

func (s *ReconcileService) appendDay(ctx context.Context, day civil.Date, rec models.ExchangeRateRecord) error {
	row := processors.EncodeRow(day, rec, s.now(), processors.PercentTwoDecimals)
	return s.store.AppendRows(ctx, s.cfg.Sheet, []models.Row{row})
}

func (s *ReconcileService) requireSheet(ctx context.Context) error {
	ok, err := s.store.HasSheet(ctx, s.cfg.Sheet)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("Rates sheet not found", "sheet", s.cfg.Sheet)
		return store.SheetMissing(s.cfg.Sheet)
	}
	return nil
}
