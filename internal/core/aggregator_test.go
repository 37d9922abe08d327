package core

import (
	"area_service/internal/domain/model"
	"math"
	"testing"
)

func poisAt(category model.Category, distances ...float64) []model.POI {
	pois := make([]model.POI, len(distances))
	for i, d := range distances {
		pois[i] = model.POI{
			ID:             string(category) + "/" + string(rune('a'+i)),
			Category:       category,
			DistanceMeters: d,
		}
	}
	return pois
}

func TestAggregatePercentagesSumTo100(t *testing.T) {
	pois := map[model.Category][]model.POI{
		model.CategoryGrocery:    poisAt(model.CategoryGrocery, 100, 200, 300),
		model.CategorySchool:     poisAt(model.CategorySchool, 400),
		model.CategoryHealthcare: {},
		model.CategoryTransit:    poisAt(model.CategoryTransit, 150, 600),
		model.CategoryPark:       poisAt(model.CategoryPark, 900),
	}

	stats := CategoryAggregator{}.Aggregate(pois)

	if len(stats) != 5 {
		t.Fatalf("expected 5 stats, got %d", len(stats))
	}

	var sum float64
	for _, stat := range stats {
		sum += stat.Percentage
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("percentages sum to %.2f, want 100 +- 0.5", sum)
	}
}

func TestAggregateOrdering(t *testing.T) {
	pois := map[model.Category][]model.POI{
		model.CategoryPark:    poisAt(model.CategoryPark, 100, 200),
		model.CategoryGrocery: poisAt(model.CategoryGrocery, 100, 200),
		model.CategorySchool:  poisAt(model.CategorySchool, 100, 200, 300),
		model.CategoryTransit: poisAt(model.CategoryTransit, 100),
	}

	stats := CategoryAggregator{}.Aggregate(pois)

	want := []model.Category{
		model.CategorySchool,  // count 3
		model.CategoryGrocery, // count 2, before park lexicographically
		model.CategoryPark,    // count 2
		model.CategoryTransit, // count 1
	}
	for i, category := range want {
		if stats[i].Category != category {
			t.Errorf("position %d: got %s, want %s", i, stats[i].Category, category)
		}
	}
}

func TestAggregateEmptySnapshot(t *testing.T) {
	pois := map[model.Category][]model.POI{
		model.CategoryGrocery: {},
		model.CategoryPark:    {},
	}

	stats := CategoryAggregator{}.Aggregate(pois)

	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}
	for _, stat := range stats {
		if stat.Count != 0 || stat.Percentage != 0 {
			t.Errorf("%s: got count=%d percentage=%.2f, want zeros", stat.Category, stat.Count, stat.Percentage)
		}
	}
}
