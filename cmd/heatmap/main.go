// Package main implements the heatmap CLI, which synthesizes the heat-map
// overlay for one location and prints it as a GeoJSON FeatureCollection.
//
// Usage:
//
//	heatmap -lat=40.7128 -lon=-74.006 -layer=pm25 -pm25=35.2
//	heatmap -lat=40.7128 -lon=-74.006 -layer=no2 -api=http://localhost:8080
//
// Readings come from the concentration flags or, with -api, from the
// /api/pollutants endpoint of a running AirAware server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"airaware/internal/aqi"
	"airaware/internal/external"
	"airaware/internal/heatmap"
	"airaware/internal/types"
)

const userAgent = "airaware-heatmap/1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(2)
	}
}

type options struct {
	point  types.GeoPoint
	layer  string
	api    string
	pretty bool

	snapshot *types.PollutantSnapshot
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("heatmap", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.Float64Var(&opts.point.Lat, "lat", 0, "latitude in degrees (required)")
	fs.Float64Var(&opts.point.Lon, "lon", 0, "longitude in degrees (required)")
	fs.StringVar(&opts.layer, "layer", types.PollutantPM25, "layer: aqi, "+strings.Join(types.PollutantKeys, ", "))
	fs.StringVar(&opts.api, "api", "", "base URL of a running AirAware API to read pollutants from")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent the output")
	for _, k := range types.PollutantKeys {
		fs.Float64(k, 0, k+" concentration in μg/m³")
	}
	fs.Int("aqi", 0, "US AQI; derived from -pm25 when omitted")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: heatmap -lat=LAT -lon=LON [-layer=LAYER] [-pm25=V ... | -api=URL]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := map[string]string{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })

	if _, ok := set["lat"]; !ok {
		return nil, errors.New("-lat is required")
	}
	if _, ok := set["lon"]; !ok {
		return nil, errors.New("-lon is required")
	}
	if opts.point.Lat < -90 || opts.point.Lat > 90 {
		return nil, fmt.Errorf("-lat %v out of range", opts.point.Lat)
	}
	if opts.point.Lon < -180 || opts.point.Lon > 180 {
		return nil, fmt.Errorf("-lon %v out of range", opts.point.Lon)
	}
	if !types.IsLayer(opts.layer) {
		return nil, fmt.Errorf("unknown layer %q", opts.layer)
	}

	if opts.api == "" {
		snap, err := snapshotFromFlags(set)
		if err != nil {
			return nil, err
		}
		opts.snapshot = snap
	}
	return opts, nil
}

// snapshotFromFlags builds a snapshot from the concentration flags that were
// given. Omitted pollutants stay null.
func snapshotFromFlags(set map[string]string) (*types.PollutantSnapshot, error) {
	snap := &types.PollutantSnapshot{}
	fields := map[string]**float64{
		types.PollutantPM25: &snap.PM25,
		types.PollutantPM10: &snap.PM10,
		types.PollutantNO2:  &snap.NO2,
		types.PollutantO3:   &snap.O3,
		types.PollutantSO2:  &snap.SO2,
		types.PollutantCO:   &snap.CO,
	}
	for key, dst := range fields {
		raw, ok := set[key]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("-%s: %w", key, err)
		}
		*dst = types.Float64Ptr(v)
	}

	if raw, ok := set["aqi"]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("-aqi: %w", err)
		}
		snap.AQI = types.IntPtr(v)
	} else if snap.PM25 != nil {
		snap.AQI = types.IntPtr(aqi.FromPM25(*snap.PM25))
	}
	snap.Category = aqi.Category(snap.AQI)
	return snap, nil
}

// fetchSnapshot reads the pollutant snapshot from a running API.
func fetchSnapshot(ctx context.Context, client *external.BaseClient, base string, p types.GeoPoint) (*types.PollutantSnapshot, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))

	var snap types.PollutantSnapshot
	if err := client.GetJSON(ctx, strings.TrimRight(base, "/")+"/api/pollutants?"+q.Encode(), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	snap := opts.snapshot
	if opts.api != "" {
		client := external.NewBaseClient(&http.Client{Timeout: 15 * time.Second},
			"airaware-api", external.DefaultRetryPolicy(), userAgent)
		snap, err = fetchSnapshot(ctx, client, opts.api, opts.point)
		if err != nil {
			return fmt.Errorf("fetching pollutants: %w", err)
		}
	}

	out := heatmap.NewCollection()
	// The AQI layer is shown by the marker alone and has no heat map.
	if opts.layer != types.LayerAQI {
		heatmap.NewController(out).Apply(opts.point, snap, opts.layer)
	}

	enc := json.NewEncoder(stdout)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out.GeoJSON())
}
