package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/analytics"
	"github.com/davestroud/publix/internal/expansion"
	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
	"github.com/davestroud/publix/internal/narrative"
	"github.com/davestroud/publix/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/saturation?city=&state=
func (s *Server) handleSaturation(w http.ResponseWriter, r *http.Request) {
	city, state, ok := cityStateParams(w, r)
	if !ok {
		return
	}

	profile, err := s.store.GetDemographic(r.Context(), city, state)
	if err != nil {
		s.internalError(w, "load demographics", err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "no demographics for "+city+", "+state)
		return
	}

	stores, err := s.store.ListStores(r.Context(), store.StoreFilter{City: city, State: state})
	if err != nil {
		s.internalError(w, "load stores", err)
		return
	}

	target, competitors := analytics.CountByCity(stores, s.cfg.Chain.Name, city, state)
	metrics, err := analytics.ComputeDensity(target, competitors, profile.Population, s.densityConfig())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if metrics == nil {
		writeError(w, http.StatusNotFound, "insufficient data for "+city+", "+state)
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}

// GET /api/opportunities?state=&limit=
func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		writeError(w, http.StatusBadRequest, "state parameter is required")
		return
	}

	opportunities, err := s.rankedOpportunities(r.Context(), state)
	if err != nil {
		s.internalError(w, "rank opportunities", err)
		return
	}

	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(opportunities) {
		opportunities = opportunities[:limit]
	}

	writeJSON(w, http.StatusOK, opportunities)
}

// GET /api/roi?city=&state=&acres=
func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	city, state, ok := cityStateParams(w, r)
	if !ok {
		return
	}

	profile, err := s.store.GetDemographic(r.Context(), city, state)
	if err != nil {
		s.internalError(w, "load demographics", err)
		return
	}

	stores, err := s.store.ListStores(r.Context(), store.StoreFilter{City: city, State: state})
	if err != nil {
		s.internalError(w, "load stores", err)
		return
	}
	existing, _ := analytics.CountByCity(stores, s.cfg.Chain.Name, city, state)

	in := analytics.ROIInput{
		ExistingStoreCount:  existing,
		StoreSizeSqFt:       s.cfg.ROI.StoreSizeSqFt,
		LandCostPerAcre:     s.cfg.ROI.LandCostPerAcre,
		ConstructionPerSqFt: s.cfg.ROI.ConstructionPerSqFt,
	}
	if profile != nil {
		pop := profile.Population
		in.Population = &pop
		in.MedianIncome = profile.MedianIncome
	}
	if acres, err := strconv.ParseFloat(r.URL.Query().Get("acres"), 64); err == nil {
		in.AcresNeeded = acres
	}

	estimate, err := analytics.EstimateROI(in, analytics.ROIConfig{
		BaseRevenue:  s.cfg.ROI.BaseRevenue,
		ProfitMargin: s.cfg.ROI.ProfitMargin,
		AcresNeeded:  s.cfg.ROI.AcresNeeded,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, estimate)
}

// GET /api/cotenancy?lat=&lng=&radius=
func (s *Server) handleCoTenancy(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat parameter is required")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lng parameter is required")
		return
	}

	point, err := geo.NewPoint(lat, lng)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	radius := s.cfg.Analytics.NearbyRadiusMiles
	if v, err := strconv.ParseFloat(r.URL.Query().Get("radius"), 64); err == nil && v > 0 {
		radius = v
	}

	stores, err := s.store.ListStores(r.Context(), store.StoreFilter{})
	if err != nil {
		s.internalError(w, "load stores", err)
		return
	}

	var anchors []string
	for _, rec := range analytics.FindNearby(point, stores, radius) {
		if rec.Chain != s.cfg.Chain.Name {
			anchors = append(anchors, rec.Chain)
		}
	}

	result := analytics.ScoreCoTenancy(anchors, s.cfg.Analytics.HighValueAnchorBrands)
	writeJSON(w, http.StatusOK, result)
}

// heatPoint is one store location on the density heatmap.
type heatPoint struct {
	City  string  `json:"city"`
	State string  `json:"state"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// GET /api/heatmap?state=
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	stores, err := s.store.ListStores(r.Context(), store.StoreFilter{
		Chain: s.cfg.Chain.Name,
		State: r.URL.Query().Get("state"),
	})
	if err != nil {
		s.internalError(w, "load stores", err)
		return
	}

	points := make([]heatPoint, 0, len(stores))
	for _, rec := range stores {
		if !rec.HasLocation() {
			continue
		}
		points = append(points, heatPoint{
			City:  rec.City,
			State: rec.State,
			Lat:   rec.Location.Lat,
			Lng:   rec.Location.Lng,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chain":  s.cfg.Chain.Name,
		"count":  len(points),
		"points": points,
	})
}

// GET /api/market-share?city=&state=
func (s *Server) handleMarketShare(w http.ResponseWriter, r *http.Request) {
	city, state, ok := cityStateParams(w, r)
	if !ok {
		return
	}

	stores, err := s.store.ListStores(r.Context(), store.StoreFilter{City: city, State: state})
	if err != nil {
		s.internalError(w, "load stores", err)
		return
	}

	writeJSON(w, http.StatusOK, expansion.MarketShare(stores))
}

// predictRequest is the POST /api/predict body.
type predictRequest struct {
	State string `json:"state"`
	TopN  int    `json:"top_n"`
}

// POST /api/predict — ranks candidate cities and kicks narrative generation
// plus persistence off to the background. Responds 202 with the predictions
// as ranked; narratives land in the store when the model replies.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.State == "" {
		writeError(w, http.StatusBadRequest, "state is required")
		return
	}
	if req.TopN <= 0 {
		req.TopN = 5
	}

	opportunities, err := s.rankedOpportunities(r.Context(), req.State)
	if err != nil {
		s.internalError(w, "rank opportunities", err)
		return
	}

	chainStores, err := s.store.ListStores(r.Context(), store.StoreFilter{Chain: s.cfg.Chain.Name, State: req.State})
	if err != nil {
		s.internalError(w, "load stores", err)
		return
	}
	timeline := expansion.AnalyzeTimeline(chainStores, req.State)

	predictions := expansion.PredictNextCities(opportunities, timeline, req.TopN)

	// The background pass mutates its own copy so encoding below stays
	// race-free.
	background := make([]model.Prediction, len(predictions))
	copy(background, predictions)
	go s.finishPredictions(background, opportunities)

	writeJSON(w, http.StatusAccepted, predictions)
}

// finishPredictions generates narratives (when a synthesizer is configured)
// and persists each prediction. Runs detached from the request.
func (s *Server) finishPredictions(predictions []model.Prediction, opportunities []model.OpportunityScore) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	oppByCity := make(map[string]model.OpportunityScore, len(opportunities))
	for _, o := range opportunities {
		oppByCity[o.City+","+o.State] = o
	}

	for i := range predictions {
		p := &predictions[i]

		if s.synth != nil {
			opp, found := oppByCity[p.City+","+p.State]
			cc := narrative.CityContext{City: p.City, State: p.State}
			if found {
				cc.Opportunity = &opp
			}

			result, err := s.synth.EvaluateCity(ctx, cc)
			if err != nil {
				s.log.Warn("narrative generation failed",
					zap.String("city", p.City), zap.Error(err))
			} else if result.IsStructured() {
				p.Narrative = result.Structured.Summary
			} else {
				p.Narrative = result.Raw
			}
		}

		if err := s.store.SavePrediction(ctx, *p); err != nil {
			s.log.Error("persist prediction failed",
				zap.String("city", p.City), zap.Error(err))
		}
	}
}

// rankedOpportunities loads demographics and stores for a state and runs the
// full density + ranking pipeline.
func (s *Server) rankedOpportunities(ctx context.Context, state string) ([]model.OpportunityScore, error) {
	profiles, err := s.store.ListDemographics(ctx, state)
	if err != nil {
		return nil, err
	}

	stores, err := s.store.ListStores(ctx, store.StoreFilter{State: state})
	if err != nil {
		return nil, err
	}

	metrics, err := analytics.ComputeCityMetrics(ctx, profiles, stores, s.cfg.Chain.Name, s.densityConfig(), defaultWorkers)
	if err != nil {
		return nil, err
	}

	return analytics.RankOpportunities(metrics, s.cfg.Analytics.MinPopulation), nil
}

func cityStateParams(w http.ResponseWriter, r *http.Request) (city, state string, ok bool) {
	city = r.URL.Query().Get("city")
	state = r.URL.Query().Get("state")
	if city == "" || state == "" {
		writeError(w, http.StatusBadRequest, "city and state parameters are required")
		return "", "", false
	}
	return city, state, true
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.log.Error(action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
