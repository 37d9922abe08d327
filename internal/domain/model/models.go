package model

import "math"

// Query is the user input: a free-text city and an area within it.
type Query struct {
	City string `json:"city"`
	Area string `json:"area"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceTo returns the great-circle distance to q in meters.
func (p GeoPoint) DistanceTo(q GeoPoint) float64 {
	const R = 6371000 // радиус Земли в метрах
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLon := (q.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the box spans a non-empty area within coordinate range.
func (b BoundingBox) Valid() bool {
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return false
	}
	return b.MinLat < b.MaxLat && b.MinLon < b.MaxLon
}

func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// POI is a single point of interest, immutable once fetched.
type POI struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	Location       GeoPoint          `json:"location"`
	DistanceMeters float64           `json:"distance_m"`
	Tags           map[string]string `json:"tags,omitempty"`
}

type CategoryStat struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// ProximityScore is the normalized livability score with per-category
// sub-scores for explainability.
type ProximityScore struct {
	Value   int                  `json:"value"`
	Factors map[Category]float64 `json:"contributing_factors"`
}

// AnalysisResult is assembled once per request and not mutated afterwards.
type AnalysisResult struct {
	Summary          string               `json:"summary"`
	PieChartData     []CategoryStat       `json:"pie_chart_data"`
	AIRating         int                  `json:"ai_rating"`
	Geocode          GeoPoint             `json:"geocode"`
	BBox             [4]float64           `json:"bbox"` // minLat, minLon, maxLat, maxLon
	GeoJSON          *FeatureCollection   `json:"geojson,omitempty"`
	POIs             map[Category][]POI   `json:"pois"`
	Factors          map[Category]float64 `json:"contributing_factors,omitempty"`
	FailedCategories []Category           `json:"failed_categories,omitempty"`
	InsufficientData bool                 `json:"insufficient_data,omitempty"`
	Warnings         []string             `json:"warnings,omitempty"`
}
