package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/ingest"
	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/internal/parcel"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load stores, demographics, and parcels into the database",
	Long: `Loads local data files into the configured store. Seed files (YAML)
carry stores and demographics together; demographics can also come from CSV
or XLSX exports, and candidate parcels from county shapefiles.

Examples:
  seed --file florida.yaml
  seed --demographics cities.csv
  seed --demographics cities.xlsx
  seed --parcels polk_county.shp --min-acres 15 --max-acres 25`,
	RunE: runSeed,
}

func init() {
	f := seedCmd.Flags()
	f.String("file", "", "seed YAML with stores and demographics")
	f.String("demographics", "", "demographics CSV or XLSX file")
	f.String("parcels", "", "county parcel shapefile (.shp)")
	f.Float64("min-acres", 0, "minimum parcel acreage (default: 15)")
	f.Float64("max-acres", 0, "maximum parcel acreage (default: 25)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	seedPath, _ := cmd.Flags().GetString("file")
	demoPath, _ := cmd.Flags().GetString("demographics")
	parcelPath, _ := cmd.Flags().GetString("parcels")
	minAcres, _ := cmd.Flags().GetFloat64("min-acres")
	maxAcres, _ := cmd.Flags().GetFloat64("max-acres")

	if seedPath == "" && demoPath == "" && parcelPath == "" {
		return eris.New("seed: at least one of --file, --demographics, --parcels is required")
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	log := zap.L().With(zap.String("command", "seed"))

	if seedPath != "" {
		stores, profiles, err := ingest.LoadSeedFile(seedPath)
		if err != nil {
			return err
		}
		n, err := st.UpsertStores(ctx, stores)
		if err != nil {
			return eris.Wrap(err, "seed: upsert stores")
		}
		m, err := st.UpsertDemographics(ctx, profiles)
		if err != nil {
			return eris.Wrap(err, "seed: upsert demographics")
		}
		log.Info("seed file loaded",
			zap.String("path", seedPath),
			zap.Int("stores", n),
			zap.Int("demographics", m),
		)
		fmt.Printf("Loaded %d stores and %d demographic profiles from %s\n", n, m, seedPath)
	}

	if demoPath != "" {
		profiles, err := loadDemographics(demoPath)
		if err != nil {
			return err
		}
		n, err := st.UpsertDemographics(ctx, profiles)
		if err != nil {
			return eris.Wrap(err, "seed: upsert demographics")
		}
		log.Info("demographics loaded", zap.String("path", demoPath), zap.Int("count", n))
		fmt.Printf("Loaded %d demographic profiles from %s\n", n, demoPath)
	}

	if parcelPath != "" {
		filter := parcel.DefaultFilter()
		if minAcres > 0 {
			filter.MinAcres = minAcres
		}
		if maxAcres > 0 {
			filter.MaxAcres = maxAcres
		}
		parcels, err := parcel.LoadShapefile(parcelPath, filter)
		if err != nil {
			return err
		}
		n, err := st.UpsertParcels(ctx, parcels)
		if err != nil {
			return eris.Wrap(err, "seed: upsert parcels")
		}
		log.Info("parcels loaded",
			zap.String("path", parcelPath),
			zap.Float64("min_acres", filter.MinAcres),
			zap.Float64("max_acres", filter.MaxAcres),
			zap.Int("count", n),
		)
		fmt.Printf("Loaded %d parcels from %s\n", n, parcelPath)
	}

	return nil
}

func loadDemographics(path string) ([]model.DemographicProfile, error) {
	switch {
	case strings.HasSuffix(path, ".xlsx"):
		return ingest.LoadDemographicsXLSX(path)
	case strings.HasSuffix(path, ".csv"):
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ingest.LoadDemographicsCSV(f)
	default:
		return nil, eris.Errorf("seed: unsupported demographics format: %s", path)
	}
}
