package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/processors"
	"github.com/username/dolarhistorico/src/store"
)

const ratesSheet = "Cotizaciones"

type fakeRates struct {
	current    *models.ExchangeRateRecord
	historical map[civil.Date]models.ExchangeRateRecord

	currentCalls    int
	refreshCalls    int
	historicalCalls []civil.Date
}

func (f *fakeRates) Current(_ context.Context, refresh bool) (models.ExchangeRateRecord, error) {
	f.currentCalls++
	if refresh {
		f.refreshCalls++
	}
	if f.current == nil {
		return models.ExchangeRateRecord{}, fmt.Errorf("%w: current", apperrors.ErrDataUnavailable)
	}
	return *f.current, nil
}

func (f *fakeRates) Historical(_ context.Context, day civil.Date) (models.ExchangeRateRecord, error) {
	f.historicalCalls = append(f.historicalCalls, day)
	rec, ok := f.historical[day]
	if !ok {
		return models.ExchangeRateRecord{}, fmt.Errorf("%w: %s", apperrors.ErrDataUnavailable, day)
	}
	return rec, nil
}

func record(officialSell, blueSell int64) models.ExchangeRateRecord {
	official := decimal.NewFromInt(officialSell)
	blue := decimal.NewFromInt(blueSell)
	return models.ExchangeRateRecord{
		Official:           models.Pair{Buy: official.Sub(decimal.NewFromInt(50)), Sell: official},
		Blue:               models.Pair{Buy: blue.Sub(decimal.NewFromInt(20)), Sell: blue},
		BlueOfficialSpread: processors.Spread(blue, official),
	}
}

func day(d int) civil.Date {
	return civil.Date{Year: 2024, Month: time.March, Day: d}
}

type ReconcileServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.Memory
	rates   *fakeRates
	service *ReconcileService
}

func (s *ReconcileServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemory()
	s.rates = &fakeRates{historical: map[civil.Date]models.ExchangeRateRecord{}}
	now := func() time.Time { return time.Date(2024, time.March, 15, 15, 0, 0, 0, time.UTC) }
	s.service = NewReconcileService(
		ReconcileConfig{Sheet: ratesSheet, MinDate: civil.Date{Year: 2015, Month: time.January, Day: 1}},
		s.store, s.rates, logger.Discard(), now)
	s.Require().NoError(s.service.Setup(s.ctx))
}

func (s *ReconcileServiceTestSuite) seed(days ...int) {
	rows := make([]models.Row, 0, len(days))
	for _, d := range days {
		rows = append(rows, processors.EncodeRow(day(d), record(900, 1000), time.Now(), processors.PercentTwoDecimals))
	}
	s.Require().NoError(s.store.AppendRows(s.ctx, ratesSheet, rows))
}

func (s *ReconcileServiceTestSuite) rows() []models.Row {
	rows, err := s.store.ReadRange(s.ctx, ratesSheet, 1, 1000)
	s.Require().NoError(err)
	return rows
}

func (s *ReconcileServiceTestSuite) labels() []string {
	var out []string
	for _, row := range s.rows()[1:] {
		out = append(out, row[processors.ColLabel].(string))
	}
	return out
}

func always(ok bool) ConfirmFunc {
	return func(context.Context, State, civil.Date) (bool, error) { return ok, nil }
}

func (s *ReconcileServiceTestSuite) TestStatusMissingSheet() {
	svc := NewReconcileService(ReconcileConfig{Sheet: "Otra"}, s.store, s.rates, logger.Discard(), nil)
	_, _, err := svc.Status(s.ctx)
	s.ErrorIs(err, apperrors.ErrSheetMissing)

	_, err = svc.ReconcileRange(s.ctx, day(1), day(2))
	s.ErrorIs(err, apperrors.ErrSheetMissing)
}

func (s *ReconcileServiceTestSuite) TestStatusStates() {
	state, _, err := s.service.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(NoExistingData, state)

	s.seed(10)
	state, last, err := s.service.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(LastRowIsOlder, state)
	s.Equal(day(10), last)

	s.seed(14)
	state, _, err = s.service.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(LastRowIsYesterday, state)

	s.seed(15)
	state, _, err = s.service.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(LastRowIsToday, state)

	s.seed(16)
	_, _, err = s.service.Status(s.ctx)
	s.ErrorIs(err, apperrors.ErrRange)
}

func (s *ReconcileServiceTestSuite) TestReconcileRangeRejectsInvertedRangeWithoutWrites() {
	_, err := s.service.ReconcileRange(s.ctx, day(12), day(10))
	s.ErrorIs(err, apperrors.ErrRange)
	s.Len(s.rows(), 1)
	s.Empty(s.rates.historicalCalls)
}

func (s *ReconcileServiceTestSuite) TestReconcileRangeRejectsOutOfWindow() {
	_, err := s.service.ReconcileRange(s.ctx, civil.Date{Year: 2014, Month: time.December, Day: 31}, day(1))
	s.ErrorIs(err, apperrors.ErrRange)

	_, err = s.service.ReconcileRange(s.ctx, day(14), day(16))
	s.ErrorIs(err, apperrors.ErrRange)

	s.Len(s.rows(), 1)
	s.Empty(s.rates.historicalCalls)
}

func (s *ReconcileServiceTestSuite) TestReconcileRangeTwiceUpdatesInsteadOfAppending() {
	s.rates.historical[day(12)] = record(1000, 1500)

	first, err := s.service.ReconcileRange(s.ctx, day(12), day(12))
	s.Require().NoError(err)
	s.Equal(1, first.Added)
	s.Equal(0, first.Updated)
	s.Len(s.rows(), 2)

	second, err := s.service.ReconcileRange(s.ctx, day(12), day(12))
	s.Require().NoError(err)
	s.Equal(0, second.Added)
	s.Equal(1, second.Updated)
	s.Len(s.rows(), 2)
	s.Equal("50,00%", s.rows()[1][processors.ColBlueOfficialSpread])
}

func (s *ReconcileServiceTestSuite) TestReconcileRangeSkipsMissingDaysAndSorts() {
	s.seed(14, 9)
	for _, d := range []int{10, 11, 13, 14} {
		s.rates.historical[day(d)] = record(1000, int64(1000+d))
	}

	report, err := s.service.ReconcileRange(s.ctx, day(10), day(14))
	s.Require().NoError(err)
	s.Equal(3, report.Added)
	s.Equal(1, report.Updated)
	s.Equal(1, report.Skipped)
	s.False(report.Cancelled)
	s.Len(s.rates.historicalCalls, 5)

	s.Equal([]string{
		"Sáb 09/03/2024", "Dom 10/03/2024", "Lun 11/03/2024", "Mié 13/03/2024", "Jue 14/03/2024",
	}, s.labels())
	s.Equal("1.014,00", s.rows()[5][processors.ColBlueSell])
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayDeclinedWritesNothing() {
	s.seed(10)
	report, err := s.service.UpdateToToday(s.ctx, always(false))
	s.Require().NoError(err)
	s.True(report.Cancelled)
	s.Len(s.rows(), 2)
	s.Zero(s.rates.currentCalls)
	s.Empty(s.rates.historicalCalls)
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayConfirmSeesState() {
	s.seed(14)
	var seen State
	var seenLast civil.Date
	_, err := s.service.UpdateToToday(s.ctx, func(_ context.Context, st State, last civil.Date) (bool, error) {
		seen, seenLast = st, last
		return false, nil
	})
	s.Require().NoError(err)
	s.Equal(LastRowIsYesterday, seen)
	s.Equal(day(14), seenLast)
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayNoExistingData() {
	rec := record(1000, 1500)
	s.rates.current = &rec

	report, err := s.service.UpdateToToday(s.ctx, always(true))
	s.Require().NoError(err)
	s.Equal(1, report.Added)
	s.Equal([]string{"Vie 15/03/2024"}, s.labels())
	s.Equal(0, s.rates.refreshCalls)
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayOverwritesTodayInPlace() {
	s.seed(14, 15)
	rec := record(1000, 1500)
	s.rates.current = &rec

	report, err := s.service.UpdateToToday(s.ctx, always(true))
	s.Require().NoError(err)
	s.Equal(1, report.Updated)
	s.Equal(0, report.Added)
	s.Equal(1, s.rates.refreshCalls)

	rows := s.rows()
	s.Len(rows, 3)
	s.Equal("1.500,00", rows[2][processors.ColBlueSell])
	s.Equal("50,0%", rows[2][processors.ColBlueOfficialSpread])
	s.Equal("1.000,00", rows[1][processors.ColBlueSell])
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayFromYesterdayCarriesValuesForward() {
	s.seed(14)
	s.rates.historical[day(14)] = record(1000, 1400)

	report, err := s.service.UpdateToToday(s.ctx, always(true))
	s.Require().NoError(err)
	s.Equal(1, report.Added)
	s.Equal([]civil.Date{day(14)}, s.rates.historicalCalls)
	s.Zero(s.rates.currentCalls)

	rows := s.rows()
	s.Len(rows, 3)
	s.Equal("Vie 15/03/2024", rows[2][processors.ColLabel])
	s.Equal("1.400,00", rows[2][processors.ColBlueSell])
	s.Equal("40,00%", rows[2][processors.ColBlueOfficialSpread])
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayBackfillsOlderGap() {
	s.seed(11)
	for _, d := range []int{12, 14} {
		s.rates.historical[day(d)] = record(1000, 1200)
	}
	rec := record(1000, 1500)
	s.rates.current = &rec

	report, err := s.service.UpdateToToday(s.ctx, always(true))
	s.Require().NoError(err)
	s.Equal(3, report.Added)
	s.Equal(1, report.Skipped)
	s.Equal([]civil.Date{day(12), day(13), day(14)}, s.rates.historicalCalls)
	s.Equal([]string{"Lun 11/03/2024", "Mar 12/03/2024", "Jue 14/03/2024", "Vie 15/03/2024"}, s.labels())
}

func (s *ReconcileServiceTestSuite) withMinDate(min civil.Date) {
	now := func() time.Time { return time.Date(2024, time.March, 15, 15, 0, 0, 0, time.UTC) }
	s.service = NewReconcileService(ReconcileConfig{Sheet: ratesSheet, MinDate: min},
		s.store, s.rates, logger.Discard(), now)
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayBackfillStartsAtMinDate() {
	s.withMinDate(day(13))
	s.seed(10)
	for _, d := range []int{13, 14} {
		s.rates.historical[day(d)] = record(1000, 1200)
	}
	rec := record(1000, 1500)
	s.rates.current = &rec

	report, err := s.service.UpdateToToday(s.ctx, always(true))
	s.Require().NoError(err)
	s.Equal(3, report.Added)
	s.Equal(0, report.Skipped)
	s.Equal([]civil.Date{day(13), day(14)}, s.rates.historicalCalls)
	s.Equal([]string{"Dom 10/03/2024", "Mié 13/03/2024", "Jue 14/03/2024", "Vie 15/03/2024"}, s.labels())
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodaySkipsBackfillWhenMinDateIsToday() {
	s.withMinDate(day(15))
	s.seed(10)
	rec := record(1000, 1500)
	s.rates.current = &rec

	var seen State
	report, err := s.service.UpdateToToday(s.ctx, func(_ context.Context, state State, _ civil.Date) (bool, error) {
		seen = state
		return true, nil
	})
	s.Require().NoError(err)
	s.Equal(LastRowIsOlder, seen)
	s.Equal(1, report.Added)
	s.Empty(s.rates.historicalCalls)
	s.Equal(1, s.rates.currentCalls)
	s.Equal([]string{"Dom 10/03/2024", "Vie 15/03/2024"}, s.labels())
}

func (s *ReconcileServiceTestSuite) TestUpdateToTodayUnavailableCurrent() {
	_, err := s.service.UpdateToToday(s.ctx, always(true))
	s.ErrorIs(err, apperrors.ErrDataUnavailable)
	s.Len(s.rows(), 1)
}

func (s *ReconcileServiceTestSuite) TestLookup() {
	s.seed(10, 12)
	row, found, err := s.service.Lookup(s.ctx, day(12))
	s.Require().NoError(err)
	s.True(found)
	s.Equal("Mar 12/03/2024", row[processors.ColLabel])

	_, found, err = s.service.Lookup(s.ctx, day(11))
	s.Require().NoError(err)
	s.False(found)
}

func TestReconcileServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcileServiceTestSuite))
}
