package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/internal/store"
	"github.com/davestroud/publix/pkg/places"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Evaluate a candidate site's surroundings",
	Long: `Scans the stores around a coordinate and scores the anchor-tenant
mix. Anchor brands come from the Places API when a key is configured,
otherwise from known store records near the point.

Examples:
  site --lat 28.0395 --lng -81.9498
  site --lat 30.8327 --lng -83.2785 --radius 5
  site --lat 28.0395 --lng -81.9498 --centers --format json`,
	RunE: runSite,
}

func init() {
	f := siteCmd.Flags()
	f.Float64("lat", 0, "site latitude (required)")
	f.Float64("lng", 0, "site longitude (required)")
	f.Float64("radius", 0, "scan radius in miles (default: from config)")
	f.Bool("centers", false, "also list shopping centers near the site (needs Places API key)")
	f.String("format", "table", "output format: table or json")
	_ = siteCmd.MarkFlagRequired("lat")
	_ = siteCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(siteCmd)
}

func runSite(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	radius, _ := cmd.Flags().GetFloat64("radius")
	centers, _ := cmd.Flags().GetBool("centers")
	format, _ := cmd.Flags().GetString("format")

	point, err := geo.NewPoint(lat, lng)
	if err != nil {
		return eris.Wrap(err, "site")
	}
	if radius <= 0 {
		radius = cfg.Analytics.NearbyRadiusMiles
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	stores, err := st.ListStores(ctx, store.StoreFilter{})
	if err != nil {
		return eris.Wrap(err, "site: list stores")
	}

	nearby := analytics.FindNearby(point, stores, radius)
	nearest := analytics.NearestPerBrand(point, stores)

	anchors, err := anchorBrands(ctx, point, radius, nearby)
	if err != nil {
		return err
	}
	coTenancy := analytics.ScoreCoTenancy(anchors, cfg.Analytics.HighValueAnchorBrands)

	var shoppingCenters []places.Place
	if centers {
		if cfg.Places.Key == "" {
			return eris.New("site: --centers requires a Places API key")
		}
		client := placesClient()
		shoppingCenters, err = client.SearchShoppingCenters(ctx, point.Lat, point.Lng, radius)
		if err != nil {
			return eris.Wrap(err, "site: search shopping centers")
		}
	}

	if format == "json" {
		return printJSON(map[string]any{
			"nearby_stores":    nearby,
			"nearest_by_brand": nearest,
			"co_tenancy":       coTenancy,
			"shopping_centers": shoppingCenters,
		})
	}

	formatSite(os.Stdout, point, radius, nearby, coTenancy, shoppingCenters)
	return nil
}

func placesClient() places.Client {
	opts := []places.Option{places.WithRateLimit(cfg.Places.RatePerSec)}
	if cfg.Places.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	return places.NewClient(cfg.Places.Key, opts...)
}

// anchorBrands collects the anchor brands near the point. The Places API is
// authoritative when configured; known competitor records are the fallback.
func anchorBrands(ctx context.Context, point geo.Point, radius float64, nearby []model.StoreRecord) ([]string, error) {
	wanted := make([]string, 0, len(cfg.Chain.Competitors)+len(cfg.Analytics.HighValueAnchorBrands))
	wanted = append(wanted, cfg.Chain.Competitors...)
	wanted = append(wanted, cfg.Analytics.HighValueAnchorBrands...)

	if cfg.Places.Key != "" {
		found, err := placesClient().SearchNearby(ctx, point.Lat, point.Lng, radius, wanted)
		if err != nil {
			return nil, eris.Wrap(err, "site: places search")
		}
		seen := make(map[string]struct{}, len(found))
		var brands []string
		for _, p := range found {
			if _, ok := seen[p.Brand]; ok || p.Brand == "" {
				continue
			}
			seen[p.Brand] = struct{}{}
			brands = append(brands, p.Brand)
		}
		zap.L().Debug("site: places anchors", zap.Strings("brands", brands))
		return brands, nil
	}

	seen := make(map[string]struct{})
	var brands []string
	for _, s := range nearby {
		if s.Chain == cfg.Chain.Name {
			continue
		}
		if _, ok := seen[s.Chain]; ok {
			continue
		}
		seen[s.Chain] = struct{}{}
		brands = append(brands, s.Chain)
	}
	sort.Strings(brands)
	return brands, nil
}

func formatSite(out io.Writer, point geo.Point, radius float64, nearby []model.StoreRecord, ct model.CoTenancyResult, centers []places.Place) {
	fmt.Fprintf(out, "Site %.4f, %.4f (%.1f mi radius)\n\n", point.Lat, point.Lng, radius)

	if len(nearby) == 0 {
		fmt.Fprintln(out, "No known stores within radius.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CHAIN\tCITY\tDISTANCE")
		for _, s := range nearby {
			dist := geo.DistanceMiles(point, *s.Location)
			_, _ = fmt.Fprintf(w, "%s\t%s, %s\t%.1f mi\n", s.Chain, s.City, s.State, dist)
		}
		_ = w.Flush()
	}

	fmt.Fprintf(out, "\nCo-tenancy score: %d/100 (%s)\n", ct.Score, ct.Recommendation)
	if len(ct.AnchorBrands) > 0 {
		fmt.Fprintf(out, "Anchors: %v (high-value: %d)\n", ct.AnchorBrands, ct.HighValueCount)
	}

	if len(centers) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SHOPPING CENTER\tLAT\tLNG")
		for _, c := range centers {
			_, _ = fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", c.Name, c.Latitude, c.Longitude)
		}
		_ = w.Flush()
	}
}
