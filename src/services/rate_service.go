package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/processors"
)

// RateService reads the current and historical endpoints through a Fetcher.
type RateService struct {
	fetch         Fetcher
	currentURL    string
	historicalURL string
	ttl           time.Duration
	log           *slog.Logger
}

var _ RateSource = (*RateService)(nil)

func NewRateService(fetch Fetcher, currentURL, historicalURL string, ttl time.Duration, log *slog.Logger) *RateService {
	return &RateService{
		fetch:         fetch,
		currentURL:    currentURL,
		historicalURL: strings.TrimRight(historicalURL, "/"),
		ttl:           ttl,
		log:           log,
	}
}

// HistoricalURL returns the endpoint for one day, e.g. <base>/2024/03/15.
func (s *RateService) HistoricalURL(day civil.Date) string {
	return s.historicalURL + "/" + dates.FormatDate(day, dates.ModeAPI)
}

func (s *RateService) Current(ctx context.Context, refresh bool) (models.ExchangeRateRecord, error) {
	if refresh {
		s.fetch.Invalidate(s.currentURL)
	}
	quotes, err := s.load(ctx, s.currentURL)
	if err != nil {
		return models.ExchangeRateRecord{}, fmt.Errorf("current rates: %w", err)
	}
	return processors.NormalizeCurrent(quotes), nil
}

func (s *RateService) Historical(ctx context.Context, day civil.Date) (models.ExchangeRateRecord, error) {
	quotes, err := s.load(ctx, s.HistoricalURL(day))
	if err != nil {
		return models.ExchangeRateRecord{}, fmt.Errorf("rates for %s: %w", dates.FormatDate(day, dates.ModeShort), err)
	}
	return processors.NormalizeHistorical(quotes), nil
}

func (s *RateService) load(ctx context.Context, url string) ([]models.Quote, error) {
	body, ok := s.fetch.FetchOrCached(ctx, url, s.ttl)
	if !ok {
		return nil, fmt.Errorf("%w: no response from %s", apperrors.ErrDataUnavailable, url)
	}
	quotes, err := processors.DecodeQuotes(body)
	if err != nil {
		s.log.Warn("Discarding unusable rates payload", "url", url, "error", err)
		return nil, err
	}
	return quotes, nil
}
