// Package airquality implements the dashboard operations: the combined
// air-quality report, the pollutant snapshot, heat-map synthesis, wildfire
// detections and city search. Upstream failures degrade to "N/A" or null
// fields wherever the dashboard can still render something useful.
package airquality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"golang.org/x/sync/errgroup"

	"airaware/internal/aqi"
	"airaware/internal/cache"
	"airaware/internal/external"
	"airaware/internal/heatmap"
	"airaware/internal/types"
)

const (
	// DefaultFireDays is the lookback used when a request names none.
	DefaultFireDays = 7

	// NearbyFireDegrees is the half-width of the box searched around a user.
	NearbyFireDegrees = 0.1

	// MinQueryLength is the shortest city query forwarded to the geocoder.
	MinQueryLength = 3

	// CityResultLimit bounds the geocoder result list.
	CityResultLimit = 5

	// fireTTL is short because FIRMS publishes new passes several times a day.
	fireTTL = 30 * time.Minute

	earthRadiusM = 6371008.8
)

// Cache key prefixes.
const (
	keyReport     = "aq"
	keyPollutants = "pol"
	keyFires      = "fires"
	keyCities     = "geo"
)

// Deps are the collaborators of a Service. Weather, Fires and Geocoder may
// be nil; the corresponding features then degrade or report unavailable.
type Deps struct {
	AirQuality external.AirQualityProvider
	Weather    external.WeatherProvider
	Fires      external.FireProvider
	Geocoder   external.Geocoder
	Cache      cache.Cache
	TTL        time.Duration
	Clock      types.Clock
	Logger     *slog.Logger
}

// Service is safe for concurrent use.
type Service struct {
	aq       external.AirQualityProvider
	weather  external.WeatherProvider
	fires    external.FireProvider
	geocoder external.Geocoder
	cache    cache.Cache
	ttl      time.Duration
	clock    types.Clock
	logger   *slog.Logger
}

// NewService wires a Service. A nil Cache uses an in-process MemoryCache;
// a zero TTL uses cache.DefaultTTL.
func NewService(d Deps) *Service {
	s := &Service{
		aq:       d.AirQuality,
		weather:  d.Weather,
		fires:    d.Fires,
		geocoder: d.Geocoder,
		cache:    d.Cache,
		ttl:      d.TTL,
		clock:    d.Clock,
		logger:   d.Logger,
	}
	if s.clock == nil {
		s.clock = types.RealClock{}
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(s.clock)
	}
	if s.ttl <= 0 {
		s.ttl = cache.DefaultTTL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// HeatMap is the synthesized overlay for one layer at one location.
type HeatMap struct {
	Center     types.GeoPoint           `json:"center"`
	Layer      types.Layer              `json:"layer"`
	Value      float64                  `json:"value"`
	Color      string                   `json:"color"`
	Pollutants *types.PollutantSnapshot `json:"pollutants"`
	Shapes     []heatmap.DrawableShape  `json:"shapes"`
}

// PollutantsView is the snapshot plus the layer-toggle availability map. The
// snapshot fields are inlined in JSON.
type PollutantsView struct {
	*types.PollutantSnapshot
	Available map[types.Layer]bool `json:"available"`
}

// ValidatePoint checks that p is a WGS84 coordinate.
func ValidatePoint(p types.GeoPoint) error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidLat,
			"latitude must be between -90 and 90", nil, map[string]any{"lat": p.Lat})
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidLon,
			"longitude must be between -180 and 180", nil, map[string]any{"lon": p.Lon})
	}
	return nil
}

// GetAirQuality returns the combined weather and air-quality report. Weather
// and air quality are fetched concurrently; either may fail without failing
// the request. Only reports with a successful air-quality reading are cached.
func (s *Service) GetAirQuality(ctx context.Context, p types.GeoPoint) (*types.AirQualityReport, error) {
	if err := ValidatePoint(p); err != nil {
		return nil, err
	}

	key := cache.CoordKey(keyReport, p.Lat, p.Lon)
	var cached types.AirQualityReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		weather *types.Weather
		snap    *types.PollutantSnapshot
		aqOK    bool
	)
	var g errgroup.Group
	if s.weather != nil && s.weather.Enabled() {
		g.Go(func() error {
			w, err := s.weather.Current(ctx, p.Lat, p.Lon)
			if err != nil {
				s.logger.WarnContext(ctx, "weather lookup failed", "lat", p.Lat, "lon", p.Lon, "error", err)
				return nil
			}
			weather = w
			return nil
		})
	}
	g.Go(func() error {
		snap, aqOK = s.snapshot(ctx, p)
		return nil
	})
	_ = g.Wait()

	report := &types.AirQualityReport{
		City:     types.CategoryUnavailable,
		Category: types.CategoryUnavailable,
	}
	if weather != nil {
		if weather.City != "" {
			report.City = weather.City
		}
		report.Temperature = weather.Temperature
		report.Humidity = weather.Humidity
	}
	if aqOK {
		report.AQI = snap.AQI
		report.PM25 = snap.PM25
		report.Category = snap.Category
	}
	report.MarkerColor = aqi.MarkerColor(report.Category)
	if report.AQI != nil {
		report.Recommendation = aqi.Recommendation(*report.AQI)
	}

	if aqOK {
		s.cacheSet(ctx, key, report, s.ttl)
	}
	return report, nil
}

// GetPollutants returns the pollutant snapshot. An upstream failure yields
// an all-null snapshot with category "N/A" rather than an error.
func (s *Service) GetPollutants(ctx context.Context, p types.GeoPoint) (*PollutantsView, error) {
	if err := ValidatePoint(p); err != nil {
		return nil, err
	}
	snap, _ := s.snapshot(ctx, p)
	return &PollutantsView{PollutantSnapshot: snap, Available: s.Availability(snap)}, nil
}

// Availability maps each layer to whether the snapshot has a positive
// reading for it.
func (s *Service) Availability(snap *types.PollutantSnapshot) map[types.Layer]bool {
	return snap.Availability()
}

// GetHeatMap synthesizes the overlay for layer at p. The aqi layer carries
// only the marker and returns no shapes.
func (s *Service) GetHeatMap(ctx context.Context, p types.GeoPoint, layer types.Layer) (*HeatMap, error) {
	if err := ValidatePoint(p); err != nil {
		return nil, err
	}
	if !types.IsLayer(layer) {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidLayer,
			"layer must be aqi or one of "+strings.Join(types.PollutantKeys, ", "), nil,
			map[string]any{"layer": layer})
	}

	snap, _ := s.snapshot(ctx, p)
	hm := &HeatMap{
		Center:     p,
		Layer:      layer,
		Value:      snap.Value(layer),
		Pollutants: snap,
		Shapes:     []heatmap.DrawableShape{},
	}
	if layer == types.LayerAQI {
		hm.Color = aqi.MarkerColor(snap.Category)
		return hm, nil
	}
	hm.Color = heatmap.ColorFor(layer)
	if shapes := heatmap.Synthesize(p, snap, layer); shapes != nil {
		hm.Shapes = shapes
	}
	return hm, nil
}

// GetFires returns FIRMS detections inside bbox over the last days days.
// days of 0 selects DefaultFireDays.
func (s *Service) GetFires(ctx context.Context, bbox types.BBox, days int) (*types.FireCollection, error) {
	if days == 0 {
		days = DefaultFireDays
	}
	if days < external.MinFireDays || days > external.MaxFireDays {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidDays,
			fmt.Sprintf("days must be between %d and %d", external.MinFireDays, external.MaxFireDays), nil,
			map[string]any{"days": days})
	}
	if err := bbox.Validate(); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidBBox,
			"bbox must be west,south,east,north in degrees", err,
			map[string]any{"bbox": bbox.String()})
	}
	if s.fires == nil || !s.fires.Enabled() {
		return nil, types.NewAppError(types.ErrCodeFiresDisabled, "fire data is not configured", nil)
	}

	key := fmt.Sprintf("%s:%s:%s:%d", keyFires, s.fires.Source(), bbox.String(), days)
	var cached types.FireCollection
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	fires, err := s.fires.Area(ctx, bbox, days)
	if err != nil {
		return nil, err
	}
	if fires == nil {
		fires = []types.FireDetection{}
	}
	out := &types.FireCollection{
		BBox:      bbox,
		Days:      days,
		Source:    s.fires.Source(),
		Count:     len(fires),
		Fires:     fires,
		FetchedAt: s.clock.Now(),
	}
	s.cacheSet(ctx, key, out, fireTTL)
	return out, nil
}

// GetFiresNear searches the box NearbyFireDegrees around p and orders the
// detections nearest first, annotating each with its great-circle distance.
func (s *Service) GetFiresNear(ctx context.Context, p types.GeoPoint, days int) (*types.FireCollection, error) {
	if err := ValidatePoint(p); err != nil {
		return nil, err
	}
	bbox := types.BBox{
		West:  math.Max(-180, p.Lon-NearbyFireDegrees),
		South: math.Max(-90, p.Lat-NearbyFireDegrees),
		East:  math.Min(180, p.Lon+NearbyFireDegrees),
		North: math.Min(90, p.Lat+NearbyFireDegrees),
	}
	coll, err := s.GetFires(ctx, bbox, days)
	if err != nil {
		return nil, err
	}

	origin := s2.LatLngFromDegrees(p.Lat, p.Lon)
	fires := slices.Clone(coll.Fires)
	for i := range fires {
		d := origin.Distance(s2.LatLngFromDegrees(fires[i].Lat, fires[i].Lon)).Radians() * earthRadiusM
		fires[i].DistanceM = types.Float64Ptr(math.Round(d))
	}
	slices.SortStableFunc(fires, func(a, b types.FireDetection) int {
		switch {
		case *a.DistanceM < *b.DistanceM:
			return -1
		case *a.DistanceM > *b.DistanceM:
			return 1
		}
		return 0
	})

	near := *coll
	near.Fires = fires
	return &near, nil
}

// SearchCities resolves a place name. Queries shorter than MinQueryLength
// characters return an empty list without calling the geocoder.
func (s *Service) SearchCities(ctx context.Context, query string) ([]types.CityResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength || s.geocoder == nil {
		return []types.CityResult{}, nil
	}

	key := keyCities + ":" + strings.ToLower(query)
	var cached []types.CityResult
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	results, err := s.geocoder.Search(ctx, query, CityResultLimit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []types.CityResult{}
	}
	s.cacheSet(ctx, key, results, s.ttl)
	return results, nil
}

// snapshot returns the cached or freshly fetched pollutant snapshot. ok is
// false when the provider failed and the empty snapshot was substituted.
func (s *Service) snapshot(ctx context.Context, p types.GeoPoint) (*types.PollutantSnapshot, bool) {
	key := cache.CoordKey(keyPollutants, p.Lat, p.Lon)
	var cached types.PollutantSnapshot
	if s.cacheGet(ctx, key, &cached) {
		return &cached, true
	}

	snap, err := s.aq.Current(ctx, p.Lat, p.Lon)
	if err != nil {
		s.logger.WarnContext(ctx, "air quality lookup failed", "lat", p.Lat, "lon", p.Lon, "error", err)
		return types.EmptySnapshot(), false
	}
	s.cacheSet(ctx, key, snap, s.ttl)
	return snap, true
}

// Cache errors are logged and treated as misses; the cache is an
// optimization only.
func (s *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, v, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}
