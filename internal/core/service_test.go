package core

import (
	"area_service/internal/domain/model"
	"context"
	"math"
	"testing"
	"time"
)

type fakeGeocoder struct {
	center model.GeoPoint
	bbox   model.BoundingBox
	err    error
}

func (g *fakeGeocoder) Resolve(ctx context.Context, q model.Query) (model.GeoPoint, model.BoundingBox, error) {
	if g.err != nil {
		return model.GeoPoint{}, model.BoundingBox{}, g.err
	}
	return g.center, g.bbox, nil
}

type fakePOISource struct {
	pois   map[model.Category][]model.POI
	failed []model.Category
	err    error
}

func (s *fakePOISource) FetchPOIs(ctx context.Context, center model.GeoPoint, bbox model.BoundingBox, categories []model.Category) (map[model.Category][]model.POI, []model.Category, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.pois, s.failed, nil
}

type memoryCache struct {
	entries map[string]*model.AnalysisResult
	hits    int
}

func (c *memoryCache) Get(ctx context.Context, q model.Query) (*model.AnalysisResult, error) {
	if result, ok := c.entries[q.City+"|"+q.Area]; ok {
		c.hits++
		return result, nil
	}
	return nil, nil
}

func (c *memoryCache) Put(ctx context.Context, q model.Query, result *model.AnalysisResult) error {
	if c.entries == nil {
		c.entries = map[string]*model.AnalysisResult{}
	}
	c.entries[q.City+"|"+q.Area] = result
	return nil
}

func manhattanService(cache ResultCache) *AnalysisService {
	geocoder := &fakeGeocoder{
		center: model.GeoPoint{Lat: 40.7831, Lon: -73.9712},
		bbox:   model.BoundingBox{MinLat: 40.7731, MinLon: -73.9812, MaxLat: 40.7931, MaxLon: -73.9612},
	}
	poiSource := &fakePOISource{
		pois: map[model.Category][]model.POI{
			model.CategoryGrocery:    poisAt(model.CategoryGrocery, 200, 500, 800),
			model.CategorySchool:     poisAt(model.CategorySchool, 500),
			model.CategoryHealthcare: {},
			model.CategoryTransit:    poisAt(model.CategoryTransit, 300, 600),
			model.CategoryPark:       poisAt(model.CategoryPark, 1000),
		},
	}
	builder := NewNarrativeBuilder(nil, time.Second, 1200)
	return NewAnalysisService(geocoder, poiSource, builder, NewProximityScorer(DefaultScoreConfig()), cache)
}

func TestAnalyzeManhattan(t *testing.T) {
	service := manhattanService(nil)

	result, err := service.Analyze(context.Background(), model.Query{City: "New York", Area: "Manhattan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.PieChartData) != 5 {
		t.Fatalf("expected 5 pie entries, got %d", len(result.PieChartData))
	}
	var sum float64
	for _, stat := range result.PieChartData {
		sum += stat.Percentage
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("pie percentages sum to %.2f, want 100 +- 0.5", sum)
	}

	// grocery 100, school 75, healthcare 0, transit 95, park 25 -> 59
	if result.AIRating != 59 {
		t.Errorf("got rating %d, want 59", result.AIRating)
	}
	if sub := result.Factors[model.CategoryHealthcare]; sub != 0 {
		t.Errorf("missing healthcare sub-score %.1f, want 0", sub)
	}

	if result.Summary == "" {
		t.Error("summary is empty")
	}
	if result.Geocode.Lat != 40.7831 || result.Geocode.Lon != -73.9712 {
		t.Errorf("unexpected geocode %+v", result.Geocode)
	}
	want := [4]float64{40.7731, -73.9812, 40.7931, -73.9612}
	if result.BBox != want {
		t.Errorf("got bbox %v, want %v", result.BBox, want)
	}
	if result.GeoJSON == nil || len(result.GeoJSON.Features) != 1+7 {
		t.Errorf("expected boundary plus 7 POI features")
	}
	if result.InsufficientData {
		t.Error("insufficient data flag set with 7 POIs")
	}
}

func TestAnalyzeInvalidInput(t *testing.T) {
	service := manhattanService(nil)

	for _, q := range []model.Query{
		{City: "", Area: "Manhattan"},
		{City: "New York", Area: "   "},
		{},
	} {
		result, err := service.Analyze(context.Background(), q)
		if result != nil {
			t.Errorf("%+v: expected nil result", q)
		}
		if model.KindOf(err) != model.KindInvalidInput {
			t.Errorf("%+v: got error %v, want invalid_input", q, err)
		}
	}
}

func TestAnalyzeGeocodeNotFound(t *testing.T) {
	service := NewAnalysisService(
		&fakeGeocoder{err: model.NewError(model.KindNotFound, "no match for query")},
		&fakePOISource{},
		NewNarrativeBuilder(nil, time.Second, 1200),
		NewProximityScorer(DefaultScoreConfig()),
		nil,
	)

	result, err := service.Analyze(context.Background(), model.Query{City: "Nowhere", Area: "Atlantis"})
	if result != nil {
		t.Error("expected nil result")
	}
	if model.KindOf(err) != model.KindNotFound {
		t.Errorf("got error %v, want not_found", err)
	}
}

func TestAnalyzePOIOutageFatal(t *testing.T) {
	service := NewAnalysisService(
		&fakeGeocoder{center: model.GeoPoint{Lat: 1, Lon: 1}, bbox: model.BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 2, MaxLon: 2}},
		&fakePOISource{err: model.NewError(model.KindDataSourceUnavailable, "all categories failed")},
		NewNarrativeBuilder(nil, time.Second, 1200),
		NewProximityScorer(DefaultScoreConfig()),
		nil,
	)

	result, err := service.Analyze(context.Background(), model.Query{City: "New York", Area: "Manhattan"})
	if result != nil {
		t.Error("expected nil result")
	}
	if model.KindOf(err) != model.KindDataSourceUnavailable {
		t.Errorf("got error %v, want data_source_unavailable", err)
	}
}

func TestAnalyzePartialFailureDegrades(t *testing.T) {
	geocoder := &fakeGeocoder{center: model.GeoPoint{Lat: 1, Lon: 1}, bbox: model.BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 2, MaxLon: 2}}
	poiSource := &fakePOISource{
		pois: map[model.Category][]model.POI{
			model.CategoryGrocery: poisAt(model.CategoryGrocery, 200),
		},
		failed: []model.Category{model.CategoryPark, model.CategoryTransit},
	}
	service := NewAnalysisService(geocoder, poiSource,
		NewNarrativeBuilder(nil, time.Second, 1200), NewProximityScorer(DefaultScoreConfig()), nil)

	result, err := service.Analyze(context.Background(), model.Query{City: "New York", Area: "Manhattan"})
	if err != nil {
		t.Fatalf("partial failure must not be fatal: %v", err)
	}
	if len(result.FailedCategories) != 2 {
		t.Errorf("got failed categories %v, want 2", result.FailedCategories)
	}
	if len(result.Warnings) < 2 {
		t.Errorf("expected a warning per failed category, got %v", result.Warnings)
	}
}

func TestAnalyzeEmptyAreaInsufficientData(t *testing.T) {
	geocoder := &fakeGeocoder{center: model.GeoPoint{Lat: 1, Lon: 1}, bbox: model.BoundingBox{MinLat: 0, MinLon: 0, MaxLat: 2, MaxLon: 2}}
	poiSource := &fakePOISource{pois: map[model.Category][]model.POI{
		model.CategoryGrocery: {},
		model.CategoryPark:    {},
	}}
	service := NewAnalysisService(geocoder, poiSource,
		NewNarrativeBuilder(nil, time.Second, 1200), NewProximityScorer(DefaultScoreConfig()), nil)

	result, err := service.Analyze(context.Background(), model.Query{City: "New York", Area: "Manhattan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.InsufficientData {
		t.Error("insufficient data flag not set")
	}
	if result.AIRating != 0 {
		t.Errorf("got rating %d, want 0", result.AIRating)
	}
	if result.Summary == "" {
		t.Error("summary is empty")
	}
	for _, stat := range result.PieChartData {
		if stat.Percentage != 0 {
			t.Errorf("%s: percentage %.2f, want 0", stat.Category, stat.Percentage)
		}
	}
}

func TestAnalyzeServesCachedResult(t *testing.T) {
	cache := &memoryCache{}
	service := manhattanService(cache)
	q := model.Query{City: "New York", Area: "Manhattan"}

	first, err := service.Analyze(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Analyze(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.hits != 1 {
		t.Errorf("got %d cache hits, want 1", cache.hits)
	}
	if second != first {
		t.Error("second call did not return the cached result")
	}
}

func TestAnalyzeNarrativeFailureAddsWarning(t *testing.T) {
	// Narrative client is nil, so every run uses the fallback.
	service := manhattanService(nil)

	result, err := service.Analyze(context.Background(), model.Query{City: "New York", Area: "Manhattan"})
	if err != nil {
		t.Fatalf("narrative failure must not be fatal: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the narrative fallback")
	}
}
