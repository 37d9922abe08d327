package core

import (
	"area_service/internal/domain/model"
	"area_service/internal/logger"
	"context"
	"fmt"
	"strings"
	"sync"
)

// Geocoder resolves a query to a center point and bounding box.
type Geocoder interface {
	Resolve(ctx context.Context, q model.Query) (model.GeoPoint, model.BoundingBox, error)
}

// POISource fetches categorized POIs for a bounding box. Failed categories are
// reported separately; the error is non-nil only on total outage.
type POISource interface {
	FetchPOIs(ctx context.Context, center model.GeoPoint, bbox model.BoundingBox, categories []model.Category) (map[model.Category][]model.POI, []model.Category, error)
}

// ResultCache is an optional cross-request cache of completed analyses.
type ResultCache interface {
	Get(ctx context.Context, q model.Query) (*model.AnalysisResult, error)
	Put(ctx context.Context, q model.Query, result *model.AnalysisResult) error
}

// State names the orchestrator's progress through one analysis.
type State string

const (
	StateReceived     State = "received"
	StateGeocoding    State = "geocoding"
	StateFetchingPOIs State = "fetching_pois"
	StateAggregating  State = "aggregating"
	StateSummarizing  State = "summarizing"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// AnalysisService sequences geocoding, POI retrieval, aggregation, scoring and
// summarization into a single consistent result per request.
type AnalysisService struct {
	geocoder   Geocoder
	poiSource  POISource
	narrative  *NarrativeBuilder
	scorer     *ProximityScorer
	aggregator CategoryAggregator
	cache      ResultCache
}

func NewAnalysisService(
	geocoder Geocoder,
	poiSource POISource,
	narrative *NarrativeBuilder,
	scorer *ProximityScorer,
	cache ResultCache,
) *AnalysisService {
	return &AnalysisService{
		geocoder:  geocoder,
		poiSource: poiSource,
		narrative: narrative,
		scorer:    scorer,
		cache:     cache,
	}
}

// Analyze is the single external entry point. It returns a complete
// AnalysisResult or a single typed error; partial states are never exposed.
func (s *AnalysisService) Analyze(ctx context.Context, q model.Query) (*model.AnalysisResult, error) {
	q.City = strings.TrimSpace(q.City)
	q.Area = strings.TrimSpace(q.Area)
	s.logState(q, StateReceived)

	if q.City == "" || q.Area == "" {
		return nil, model.NewError(model.KindInvalidInput, "city and area must be non-empty")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, q)
		if err != nil {
			logger.Log.Warnf("analysis cache lookup failed for %q, %q: %v", q.Area, q.City, err)
		} else if cached != nil {
			logger.Log.Infof("serving cached analysis for %q, %q", q.Area, q.City)
			return cached, nil
		}
	}

	s.logState(q, StateGeocoding)
	center, bbox, err := s.geocoder.Resolve(ctx, q)
	if err != nil {
		s.logState(q, StateFailed)
		return nil, err
	}

	s.logState(q, StateFetchingPOIs)
	pois, failedCategories, err := s.poiSource.FetchPOIs(ctx, center, bbox, model.Categories())
	if err != nil {
		s.logState(q, StateFailed)
		return nil, err
	}

	var warnings []string
	for _, category := range failedCategories {
		warnings = append(warnings, fmt.Sprintf("POI data unavailable for category %q", category))
	}

	// Агрегация и скоринг выполняются параллельно над одним снимком POI
	s.logState(q, StateAggregating)
	var stats []model.CategoryStat
	var score model.ProximityScore
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stats = s.aggregator.Aggregate(pois)
	}()
	go func() {
		defer wg.Done()
		score = s.scorer.Score(pois)
	}()
	wg.Wait()

	total := 0
	for _, list := range pois {
		total += len(list)
	}

	s.logState(q, StateSummarizing)
	summary, narrErr := s.narrative.BuildSummary(ctx, q, stats, score, missingEssential(pois))
	if narrErr != nil {
		logger.Log.Warnf("falling back to local summary for %q, %q: %v", q.Area, q.City, narrErr)
		warnings = append(warnings, narrErr.Error())
	}

	result := &model.AnalysisResult{
		Summary:          summary,
		PieChartData:     stats,
		AIRating:         score.Value,
		Geocode:          center,
		BBox:             [4]float64{bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon},
		GeoJSON:          BuildGeoJSON(q, bbox, pois),
		POIs:             pois,
		Factors:          score.Factors,
		FailedCategories: failedCategories,
		InsufficientData: total == 0,
		Warnings:         warnings,
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, q, result); err != nil {
			logger.Log.Warnf("failed to cache analysis for %q, %q: %v", q.Area, q.City, err)
		}
	}

	s.logState(q, StateCompleted)
	return result, nil
}

func (s *AnalysisService) logState(q model.Query, state State) {
	logger.Log.Debugf("analysis [%s, %s]: %s", q.Area, q.City, state)
}

// missingEssential lists essential categories with no POIs at all, whether
// empty or failed to fetch.
func missingEssential(pois map[model.Category][]model.POI) []model.Category {
	var missing []model.Category
	for _, category := range model.EssentialCategories() {
		if len(pois[category]) == 0 {
			missing = append(missing, category)
		}
	}
	return missing
}
