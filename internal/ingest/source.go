// Package ingest supplies store, demographic, and parcel records to the
// scoring layer. Sources are tried in priority order; the scoring layer
// never talks to an external system directly.
package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/davestroud/publix/internal/model"
)

// Source yields store records for a state. Implementations wrap scrapers,
// APIs, or fixture files.
type Source interface {
	Name() string
	FetchStores(ctx context.Context, state string) ([]model.StoreRecord, error)
}

// Chain tries sources in priority order until one yields records.
// A source that errors or comes back empty is a typed attempt outcome, not
// a caught panic; the next source is tried and the failure is logged.
type Chain struct {
	sources []Source
}

// Attempt records one source's outcome during a chain fetch.
type Attempt struct {
	Source string
	Count  int
	Err    error
}

// NewChain creates a Chain over the given sources, tried in order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// FetchStores returns the first non-empty result along with every attempt
// made. All sources failing or returning nothing is an error.
func (c *Chain) FetchStores(ctx context.Context, state string) ([]model.StoreRecord, []Attempt, error) {
	var attempts []Attempt

	for _, s := range c.sources {
		if ctx.Err() != nil {
			return nil, attempts, ctx.Err()
		}

		records, err := s.FetchStores(ctx, state)
		attempts = append(attempts, Attempt{Source: s.Name(), Count: len(records), Err: err})

		if err != nil {
			zap.L().Debug("ingest: source failed, trying next",
				zap.String("source", s.Name()),
				zap.String("state", state),
				zap.Error(err),
			)
			continue
		}
		if len(records) == 0 {
			zap.L().Debug("ingest: source returned no records, trying next",
				zap.String("source", s.Name()),
				zap.String("state", state),
			)
			continue
		}

		return normalizeRecords(records), attempts, nil
	}

	return nil, attempts, eris.Errorf("ingest: no source yielded stores for state %s", state)
}

// NormalizeCity canonicalizes a city name for dedup keys: trimmed,
// title-cased, single-spaced. A fresh caser per call keeps this safe from
// concurrent ingestion goroutines.
func NormalizeCity(city string) string {
	caser := cases.Title(language.AmericanEnglish)
	return caser.String(strings.Join(strings.Fields(city), " "))
}

// normalizeRecords canonicalizes city names and uppercases states so that
// records from different sources key identically.
func normalizeRecords(records []model.StoreRecord) []model.StoreRecord {
	for i := range records {
		records[i].City = NormalizeCity(records[i].City)
		records[i].State = strings.ToUpper(strings.TrimSpace(records[i].State))
	}
	return records
}
