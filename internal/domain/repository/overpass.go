package repository

import (
	"area_service/internal/domain/model"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/serjvanilla/go-overpass"
)

// OverpassRepository fetches categorized POIs within a bounding box from the
// Overpass API. Category queries fan out with bounded parallelism.
type OverpassRepository struct {
	client         *overpass.Client
	timeout        time.Duration
	maxPerCategory int
}

func NewOverpassRepository(endpoint string, timeout time.Duration, maxParallel, maxPerCategory int) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, maxParallel, httpClient)
	return &OverpassRepository{
		client:         &client,
		timeout:        timeout,
		maxPerCategory: maxPerCategory,
	}
}

// categoryFilters maps each internal category to its Overpass tag selectors.
var categoryFilters = map[model.Category][]string{
	model.CategoryGrocery: {
		`["shop"~"^(supermarket|convenience|greengrocer|grocery)$"]`,
		`["amenity"="marketplace"]`,
	},
	model.CategorySchool: {
		`["amenity"~"^(school|kindergarten|college|university)$"]`,
	},
	model.CategoryTransit: {
		`["highway"="bus_stop"]`,
		`["railway"~"^(station|halt|tram_stop)$"]`,
		`["amenity"="bus_station"]`,
	},
	model.CategoryHealthcare: {
		`["amenity"~"^(hospital|clinic|doctors|pharmacy)$"]`,
	},
	model.CategoryPark: {
		`["leisure"~"^(park|playground|garden)$"]`,
	},
	model.CategoryRestaurant: {
		`["amenity"~"^(restaurant|cafe|fast_food|bar|pub)$"]`,
	},
}

// FetchPOIs queries one category at a time within bbox and returns POIs per
// category together with the categories whose query failed. It fails with
// KindDataSourceUnavailable only when every category fails.
func (r *OverpassRepository) FetchPOIs(
	ctx context.Context,
	center model.GeoPoint,
	bbox model.BoundingBox,
	categories []model.Category,
) (map[model.Category][]model.POI, []model.Category, error) {
	bboxStr := fmt.Sprintf("%f,%f,%f,%f", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)

	pois := make(map[model.Category][]model.POI, len(categories))
	var failed []model.Category
	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, category := range categories {
		wg.Add(1)
		go func(category model.Category) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				mu.Lock()
				failed = append(failed, category)
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			result, err := r.executeQuery(ctx, buildCategoryQuery(bboxStr, categoryFilters[category]))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, category)
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			pois[category] = capNearest(dedupePOIs(convertToPOIs(category, center, result)), r.maxPerCategory)
		}(category)
	}

	wg.Wait()

	if len(failed) == len(categories) {
		return nil, nil, model.WrapError(model.KindDataSourceUnavailable,
			"POI source unavailable for all categories", firstErr)
	}

	// Deterministic report order for partially failed fetches
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })

	return pois, failed, nil
}

func buildCategoryQuery(bbox string, filters []string) string {
	var sb strings.Builder
	sb.WriteString("[out:json];\n(\n")
	for _, filter := range filters {
		fmt.Fprintf(&sb, "\tnode%s(%s);\n", filter, bbox)
		fmt.Fprintf(&sb, "\tway%s(%s);\n", filter, bbox)
	}
	sb.WriteString(");\nout body;\n>;\nout skel qt;\n")
	return sb.String()
}

func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	// overpass.Client.Query takes no context, so an in-flight query is bounded
	// by the http.Client timeout; ctx only gates entry.
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := r.client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	return &result, nil
}

func convertToPOIs(category model.Category, center model.GeoPoint, result *overpass.Result) []model.POI {
	var pois []model.POI

	for _, node := range result.Nodes {
		// Way member nodes come back untagged via the recursion; not POIs.
		if node == nil || len(node.Tags) == 0 {
			continue
		}
		pois = append(pois, newPOI(fmt.Sprintf("node/%d", node.ID), category, center,
			model.GeoPoint{Lat: node.Lat, Lon: node.Lon}, node.Tags))
	}

	for _, way := range result.Ways {
		if way == nil || len(way.Tags) == 0 {
			continue
		}

		var loc model.GeoPoint
		if way.Bounds != nil {
			loc = model.GeoPoint{
				Lat: (way.Bounds.Min.Lat + way.Bounds.Max.Lat) / 2,
				Lon: (way.Bounds.Min.Lon + way.Bounds.Max.Lon) / 2,
			}
		} else if count := len(way.Nodes); count > 0 {
			for _, node := range way.Nodes {
				loc.Lat += node.Lat
				loc.Lon += node.Lon
			}
			loc.Lat /= float64(count)
			loc.Lon /= float64(count)
		} else {
			continue
		}

		pois = append(pois, newPOI(fmt.Sprintf("way/%d", way.ID), category, center, loc, way.Tags))
	}

	return pois
}

func newPOI(id string, category model.Category, center, loc model.GeoPoint, tags map[string]string) model.POI {
	cat := model.CategoryForTags(tags)
	if cat == model.CategoryOther {
		// Unmapped tag combination; keep the category the query asked for.
		cat = category
	}

	name := tags["name"]
	if name == "" {
		name = string(cat)
	}

	return model.POI{
		ID:             id,
		Name:           name,
		Category:       cat,
		Location:       loc,
		DistanceMeters: center.DistanceTo(loc),
		Tags:           tags,
	}
}

// dedupePOIs collapses POIs sharing an identifier, keeping the entry nearest
// the bbox center.
func dedupePOIs(pois []model.POI) []model.POI {
	seen := make(map[string]model.POI, len(pois))
	for _, poi := range pois {
		if prev, ok := seen[poi.ID]; ok && prev.DistanceMeters <= poi.DistanceMeters {
			continue
		}
		seen[poi.ID] = poi
	}

	deduped := make([]model.POI, 0, len(seen))
	for _, poi := range seen {
		deduped = append(deduped, poi)
	}
	return deduped
}

// capNearest sorts POIs nearest-to-center first (ties broken by id) and
// truncates to max entries. Truncation is deterministic by construction.
func capNearest(pois []model.POI, max int) []model.POI {
	sort.Slice(pois, func(i, j int) bool {
		if pois[i].DistanceMeters != pois[j].DistanceMeters {
			return pois[i].DistanceMeters < pois[j].DistanceMeters
		}
		return pois[i].ID < pois[j].ID
	})

	if max > 0 && len(pois) > max {
		pois = pois[:max]
	}
	return pois
}
