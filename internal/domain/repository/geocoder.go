package repository

import (
	"area_service/internal/domain/model"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// NominatimRepository resolves a free-text (city, area) query to a center
// point and a bounding box using the Nominatim search API.
type NominatimRepository struct {
	baseURL         string
	userAgent       string
	client          *http.Client
	limiter         *rate.Limiter
	fallbackRadius  float64 // meters, used when the match carries no boundary
	ambiguityMargin float64 // minimum importance gap between the two best matches
}

func NewNominatimRepository(baseURL, userAgent string, timeout time.Duration, fallbackRadius, ambiguityMargin float64) *NominatimRepository {
	return &NominatimRepository{
		baseURL:   baseURL,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
		// Nominatim usage policy allows at most one request per second.
		limiter:         rate.NewLimiter(rate.Limit(1), 1),
		fallbackRadius:  fallbackRadius,
		ambiguityMargin: ambiguityMargin,
	}
}

type nominatimPlace struct {
	PlaceID     int64    `json:"place_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	Importance  float64  `json:"importance"`
	BoundingBox []string `json:"boundingbox"` // minLat, maxLat, minLon, maxLon
}

// Resolve geocodes the query. It fails with KindNotFound on zero matches and
// KindAmbiguousLocation when the two best matches are too close to call.
func (r *NominatimRepository) Resolve(ctx context.Context, q model.Query) (model.GeoPoint, model.BoundingBox, error) {
	places, err := r.search(ctx, fmt.Sprintf("%s, %s", q.Area, q.City))
	if err != nil {
		return model.GeoPoint{}, model.BoundingBox{}, err
	}

	if len(places) == 0 {
		return model.GeoPoint{}, model.BoundingBox{},
			model.NewError(model.KindNotFound, fmt.Sprintf("no geocoding match for %q, %q", q.Area, q.City))
	}

	sort.SliceStable(places, func(i, j int) bool {
		return places[i].Importance > places[j].Importance
	})

	best := places[0]
	if len(places) > 1 && best.Importance-places[1].Importance < r.ambiguityMargin {
		return model.GeoPoint{}, model.BoundingBox{},
			model.NewError(model.KindAmbiguousLocation,
				fmt.Sprintf("multiple comparable matches: %q vs %q", best.DisplayName, places[1].DisplayName))
	}

	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return model.GeoPoint{}, model.BoundingBox{},
			model.WrapError(model.KindDataSourceUnavailable, "geocoder returned invalid latitude", err)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return model.GeoPoint{}, model.BoundingBox{},
			model.WrapError(model.KindDataSourceUnavailable, "geocoder returned invalid longitude", err)
	}
	center := model.GeoPoint{Lat: lat, Lon: lon}

	bbox, ok := parseBoundingBox(best.BoundingBox)
	if !ok || !bbox.Valid() || !bbox.Contains(center) {
		bbox = r.synthesizeBBox(center)
	}

	return center, bbox, nil
}

func (r *NominatimRepository) search(ctx context.Context, query string) ([]nominatimPlace, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=5&addressdetails=0",
		r.baseURL, url.QueryEscape(query))

	resp, err := r.doGet(ctx, endpoint)
	if err != nil {
		// Единственный повтор при сетевой ошибке
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err = r.doGet(ctx, endpoint)
	}
	if err != nil {
		return nil, model.WrapError(model.KindDataSourceUnavailable, "geocoder request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewError(model.KindDataSourceUnavailable,
			fmt.Sprintf("geocoder returned status %d", resp.StatusCode))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, model.WrapError(model.KindDataSourceUnavailable, "failed to decode geocoder response", err)
	}

	return places, nil
}

func (r *NominatimRepository) doGet(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	return r.client.Do(req)
}

// synthesizeBBox builds a square around center sized for a walkable district.
func (r *NominatimRepository) synthesizeBBox(center model.GeoPoint) model.BoundingBox {
	dLat := r.fallbackRadius / 111320.0
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if math.Abs(cosLat) < 1e-6 {
		cosLat = 1e-6
	}
	dLon := r.fallbackRadius / (111320.0 * cosLat)

	return model.BoundingBox{
		MinLat: center.Lat - dLat,
		MinLon: center.Lon - dLon,
		MaxLat: center.Lat + dLat,
		MaxLon: center.Lon + dLon,
	}
}

// parseBoundingBox parses the Nominatim boundingbox field: minLat, maxLat, minLon, maxLon.
func parseBoundingBox(parts []string) (model.BoundingBox, bool) {
	if len(parts) != 4 {
		return model.BoundingBox{}, false
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return model.BoundingBox{}, false
		}
		vals[i] = v
	}

	return model.BoundingBox{
		MinLat: vals[0],
		MaxLat: vals[1],
		MinLon: vals[2],
		MaxLon: vals[3],
	}, true
}
