// Package expansion analyzes historical store-opening patterns and combines
// them with the opportunity ranking to predict where the chain expands next.
package expansion

import (
	"fmt"
	"sort"
	"time"

	"github.com/davestroud/publix/internal/model"
)

// CityEntry records the first store opening in a city.
type CityEntry struct {
	City      string    `json:"city"`
	State     string    `json:"state"`
	EnteredAt time.Time `json:"entered_at"`
}

// Timeline summarizes a state's expansion history.
type Timeline struct {
	State             string      `json:"state"`
	FirstStoreDate    time.Time   `json:"first_store_date"`
	TotalStores       int         `json:"total_stores"`
	StoresByYear      map[int]int `json:"stores_by_year"`
	CitiesEntered     []CityEntry `json:"cities_entered"` // ordered by entry date
	ExpansionVelocity float64     `json:"expansion_velocity"` // stores per year
}

// Maturity classifies a state's market stage.
type Maturity string

const (
	MaturityMature    Maturity = "mature"
	MaturityExpanding Maturity = "expanding"
	MaturityGrowing   Maturity = "growing"
	MaturityEmerging  Maturity = "emerging"
)

// AnalyzeTimeline builds the expansion timeline for one state from the
// chain's store records. Stores without an opening date are ignored.
// Returns nil when no dated stores exist for the state.
func AnalyzeTimeline(stores []model.StoreRecord, state string) *Timeline {
	byYear := make(map[int]int)
	entered := make(map[string]CityEntry)
	var first time.Time
	total := 0

	for _, s := range stores {
		if s.State != state || s.OpeningDate == nil {
			continue
		}
		total++
		opened := *s.OpeningDate
		byYear[opened.Year()]++

		key := cityKey(s.City, s.State)
		if e, ok := entered[key]; !ok || opened.Before(e.EnteredAt) {
			entered[key] = CityEntry{City: s.City, State: s.State, EnteredAt: opened}
		}

		if first.IsZero() || opened.Before(first) {
			first = opened
		}
	}

	if total == 0 {
		return nil
	}

	entries := make([]CityEntry, 0, len(entered))
	for _, e := range entered {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EnteredAt.Equal(entries[j].EnteredAt) {
			return entries[i].EnteredAt.Before(entries[j].EnteredAt)
		}
		return entries[i].City < entries[j].City
	})

	return &Timeline{
		State:             state,
		FirstStoreDate:    first,
		TotalStores:       total,
		StoresByYear:      byYear,
		CitiesEntered:     entries,
		ExpansionVelocity: velocity(byYear, total),
	}
}

// velocity is stores opened per active year. A single-year history counts
// every store as that year's velocity.
func velocity(byYear map[int]int, total int) float64 {
	if len(byYear) == 0 {
		return 0
	}
	minYear, maxYear := 0, 0
	for y := range byYear {
		if minYear == 0 || y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	span := maxYear - minYear + 1
	if span <= 1 {
		return float64(total)
	}
	return float64(total) / float64(span)
}

// ClassifyMaturity buckets a state by store count and expansion velocity.
func ClassifyMaturity(totalStores int, expansionVelocity float64) Maturity {
	switch {
	case totalStores > 200 && expansionVelocity < 5:
		return MaturityMature
	case expansionVelocity > 10:
		return MaturityExpanding
	case expansionVelocity > 5:
		return MaturityGrowing
	default:
		return MaturityEmerging
	}
}

// States returns the distinct states present in the store records, sorted.
func States(stores []model.StoreRecord) []string {
	seen := make(map[string]struct{})
	for _, s := range stores {
		seen[s.State] = struct{}{}
	}
	states := make([]string, 0, len(seen))
	for st := range seen {
		states = append(states, st)
	}
	sort.Strings(states)
	return states
}

func cityKey(city, state string) string {
	return fmt.Sprintf("%s,%s", city, state)
}
