// src/services/interfaces.go
package services

import (
	"context"
	"io"
	"time"

	"cloud.google.com/go/civil"

	"github.com/username/dolarhistorico/src/models"
)

// Fetcher retrieves a URL through a TTL cache. A false result means no data,
// whatever the cause; it is never an error.
type Fetcher interface {
	FetchOrCached(ctx context.Context, url string, ttl time.Duration) ([]byte, bool)
	Invalidate(url string)
}

// RateSource yields normalized quotes. Missing data is reported as apperrors.ErrDataUnavailable.
type RateSource interface {
	// Current returns the live snapshot; refresh bypasses the cached copy.
	Current(ctx context.Context, refresh bool) (models.ExchangeRateRecord, error)
	Historical(ctx context.Context, day civil.Date) (models.ExchangeRateRecord, error)
}

// CustomerParser decodes a customer export into raw entries.
type CustomerParser interface {
	Parse(r io.Reader) ([]models.CustomerEntry, error)
}

// Report summarises one reconciliation run.
type Report struct {
	Updated   int           `json:"updated"`
	Added     int           `json:"added"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed"`
	Cancelled bool          `json:"cancelled"`
}

// ImportReport summarises one customer import. DuplicateRows are sheet row numbers
// holding a repeated customer code.
type ImportReport struct {
	Imported      int     `json:"imported"`
	Duplicates    []int64 `json:"duplicates"`
	DuplicateRows []int   `json:"duplicate_rows"`
}
