package core

import (
	"area_service/internal/domain/model"
	"math"
)

// ScoreConfig holds the distance thresholds and per-category weights of the
// 15-minute proximity heuristic.
type ScoreConfig struct {
	IdealDistance float64 // meters; at or below, a category scores 100
	MaxDistance   float64 // meters; at or beyond, a category scores 0
	Weights       map[model.Category]float64
}

// DefaultScoreConfig sizes MaxDistance for roughly a 15-minute walk at ~5 km/h.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		IdealDistance: 250,
		MaxDistance:   1250,
		Weights: map[model.Category]float64{
			model.CategoryGrocery:    1,
			model.CategorySchool:     1,
			model.CategoryHealthcare: 1,
			model.CategoryTransit:    1,
			model.CategoryPark:       1,
		},
	}
}

// ProximityScorer computes the livability score. Score is pure: identical POI
// input and configuration always produce the identical result.
type ProximityScorer struct {
	cfg ScoreConfig
}

func NewProximityScorer(cfg ScoreConfig) *ProximityScorer {
	if cfg.MaxDistance <= cfg.IdealDistance || cfg.IdealDistance < 0 {
		cfg = DefaultScoreConfig()
	}
	return &ProximityScorer{cfg: cfg}
}

// Score averages per-category sub-scores over the full essential set. A
// category with no POIs contributes 0 — absence penalizes the score, the
// denominator never shrinks.
func (s *ProximityScorer) Score(pois map[model.Category][]model.POI) model.ProximityScore {
	essential := model.EssentialCategories()
	factors := make(map[model.Category]float64, len(essential))

	var weighted, weightSum float64
	for _, category := range essential {
		sub := s.subScore(pois[category])
		factors[category] = sub

		w := s.weight(category)
		weighted += sub * w
		weightSum += w
	}

	value := 0
	if weightSum > 0 {
		value = int(math.Round(weighted / weightSum))
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return model.ProximityScore{
		Value:   value,
		Factors: factors,
	}
}

// subScore maps the minimum distance-from-center of a category's POIs to
// [0,100], decreasing linearly between the ideal and max thresholds.
func (s *ProximityScorer) subScore(pois []model.POI) float64 {
	if len(pois) == 0 {
		return 0
	}

	minDist := pois[0].DistanceMeters
	for _, poi := range pois[1:] {
		if poi.DistanceMeters < minDist {
			minDist = poi.DistanceMeters
		}
	}

	switch {
	case minDist <= s.cfg.IdealDistance:
		return 100
	case minDist >= s.cfg.MaxDistance:
		return 0
	default:
		raw := 100 * (s.cfg.MaxDistance - minDist) / (s.cfg.MaxDistance - s.cfg.IdealDistance)
		return math.Round(raw*10) / 10
	}
}

func (s *ProximityScorer) weight(category model.Category) float64 {
	if w, ok := s.cfg.Weights[category]; ok && w > 0 {
		return w
	}
	return 1
}
