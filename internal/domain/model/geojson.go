package model

// FeatureCollection is the subset of GeoJSON the map frontend consumes.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds either a Point ([lon, lat]) or a Polygon ([][][2]float64)
// in Coordinates, matching GeoJSON's position order.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}
