package ingest

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
)

// SeedFile is the YAML fixture format used to preload a store database.
type SeedFile struct {
	Stores       []seedStore       `yaml:"stores"`
	Demographics []seedDemographic `yaml:"demographics"`
}

type seedStore struct {
	Chain       string   `yaml:"chain"`
	City        string   `yaml:"city"`
	State       string   `yaml:"state"`
	Address     string   `yaml:"address"`
	Lat         *float64 `yaml:"lat"`
	Lng         *float64 `yaml:"lng"`
	OpeningDate string   `yaml:"opening_date"` // YYYY-MM-DD
}

type seedDemographic struct {
	City         string   `yaml:"city"`
	State        string   `yaml:"state"`
	Population   int      `yaml:"population"`
	MedianIncome *float64 `yaml:"median_income"`
	GrowthRate   *float64 `yaml:"growth_rate"`
}

// LoadSeedFile reads a YAML seed fixture from disk.
func LoadSeedFile(path string) ([]model.StoreRecord, []model.DemographicProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: read seed file")
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data into store and demographic records.
func ParseSeed(data []byte) ([]model.StoreRecord, []model.DemographicProfile, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, eris.Wrap(err, "ingest: parse seed yaml")
	}

	stores := make([]model.StoreRecord, 0, len(file.Stores))
	for i, s := range file.Stores {
		if s.Chain == "" || s.City == "" || s.State == "" {
			return nil, nil, eris.Errorf("ingest: seed store %d missing chain, city, or state", i)
		}

		rec := model.StoreRecord{
			Chain:   s.Chain,
			City:    NormalizeCity(s.City),
			State:   strings.ToUpper(s.State),
			Address: s.Address,
		}

		if s.Lat != nil && s.Lng != nil {
			pt, err := geo.NewPoint(*s.Lat, *s.Lng)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "ingest: seed store %d", i)
			}
			rec.Location = &pt
		}

		if s.OpeningDate != "" {
			t, err := time.Parse("2006-01-02", s.OpeningDate)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "ingest: seed store %d opening date", i)
			}
			rec.OpeningDate = &t
		}

		stores = append(stores, rec)
	}

	profiles := make([]model.DemographicProfile, 0, len(file.Demographics))
	for i, d := range file.Demographics {
		if d.City == "" || d.State == "" {
			return nil, nil, eris.Errorf("ingest: seed demographic %d missing city or state", i)
		}
		profiles = append(profiles, model.DemographicProfile{
			City:         NormalizeCity(d.City),
			State:        strings.ToUpper(d.State),
			Population:   d.Population,
			MedianIncome: d.MedianIncome,
			GrowthRate:   d.GrowthRate,
		})
	}

	return stores, profiles, nil
}
