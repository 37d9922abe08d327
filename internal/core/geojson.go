package core

import (
	"area_service/internal/domain/model"
	"fmt"
	"sort"
)

// categoryColors is the stable palette the map frontend expects per category.
var categoryColors = map[model.Category]string{
	model.CategoryGrocery:    "#0088FE",
	model.CategorySchool:     "#00C49F",
	model.CategoryTransit:    "#FFBB28",
	model.CategoryHealthcare: "#FF8042",
	model.CategoryPark:       "#2CA02C",
	model.CategoryRestaurant: "#AF19FF",
	model.CategoryOther:      "#000000",
}

// BuildGeoJSON assembles the boundary polygon and color-coded POI points the
// map UI renders. Feature order is deterministic: boundary first, then
// categories in lexicographic order, POIs nearest-first within each.
func BuildGeoJSON(q model.Query, bbox model.BoundingBox, pois map[model.Category][]model.POI) *model.FeatureCollection {
	ring := [][]float64{
		{bbox.MinLon, bbox.MinLat},
		{bbox.MinLon, bbox.MaxLat},
		{bbox.MaxLon, bbox.MaxLat},
		{bbox.MaxLon, bbox.MinLat},
		{bbox.MinLon, bbox.MinLat},
	}

	features := []model.Feature{
		{
			Type: "Feature",
			Geometry: model.Geometry{
				Type:        "Polygon",
				Coordinates: [][][]float64{ring},
			},
			Properties: map[string]any{
				"type":        "boundary",
				"name":        fmt.Sprintf("%s, %s", q.Area, q.City),
				"fillColor":   "#0070f3",
				"fillOpacity": 0.2,
				"strokeColor": "#0070f3",
				"strokeWidth": 2,
			},
		},
	}

	categories := make([]model.Category, 0, len(pois))
	for category := range pois {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, category := range categories {
		color, ok := categoryColors[category]
		if !ok {
			color = categoryColors[model.CategoryOther]
		}

		for _, poi := range pois[category] {
			features = append(features, model.Feature{
				Type: "Feature",
				Geometry: model.Geometry{
					Type:        "Point",
					Coordinates: []float64{poi.Location.Lon, poi.Location.Lat},
				},
				Properties: map[string]any{
					"type":       "poi",
					"category":   string(category),
					"name":       poi.Name,
					"color":      color,
					"distance_m": poi.DistanceMeters,
				},
			})
		}
	}

	return &model.FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
