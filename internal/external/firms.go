package external

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"airaware/internal/types"
)

// DefaultFIRMSSource is the VIIRS near-real-time product.
const DefaultFIRMSSource = "VIIRS_SNPP_NRT"

// FIRMS accepts day ranges of 1..10.
const (
	MinFireDays = 1
	MaxFireDays = 10
)

// FIRMSClient reads active fire detections from the NASA FIRMS area API.
type FIRMSClient struct {
	base    *BaseClient
	baseURL string
	mapKey  types.SecretString
	source  string
}

// NewFIRMSClient builds a client against baseURL
// (e.g. https://firms.modaps.eosdis.nasa.gov). An empty source selects
// DefaultFIRMSSource.
func NewFIRMSClient(httpClient *http.Client, baseURL string, mapKey types.SecretString, source string, opts ...BaseClientOption) *FIRMSClient {
	if source == "" {
		source = DefaultFIRMSSource
	}
	opts = append([]BaseClientOption{WithUpstreamCode(types.ErrCodeUpstreamFires)}, opts...)
	return &FIRMSClient{
		base:    NewBaseClient(httpClient, "firms", DefaultRetryPolicy(), userAgent, opts...),
		baseURL: strings.TrimRight(baseURL, "/"),
		mapKey:  mapKey,
		source:  source,
	}
}

// Enabled reports whether a FIRMS map key is configured.
func (c *FIRMSClient) Enabled() bool { return c.mapKey.IsSet() }

// Source returns the satellite product queried.
func (c *FIRMSClient) Source() string { return c.source }

// Area returns detections in bbox over the last days days.
func (c *FIRMSClient) Area(ctx context.Context, bbox types.BBox, days int) ([]types.FireDetection, error) {
	if !c.Enabled() {
		return nil, types.NewAppError(types.ErrCodeFiresDisabled, "fire data is not configured", nil)
	}
	if days < MinFireDays || days > MaxFireDays {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidDays,
			fmt.Sprintf("days must be between %d and %d", MinFireDays, MaxFireDays), nil,
			map[string]any{"days": days})
	}

	u := fmt.Sprintf("%s/api/area/csv/%s/%s/%s/%d",
		c.baseURL,
		url.PathEscape(c.mapKey.Unmask()),
		url.PathEscape(c.source),
		bbox.String(),
		days,
	)
	body, err := c.base.GetBytes(ctx, u, "text/csv")
	if err != nil {
		return nil, err
	}
	fires, err := ParseFIRMSCSV(bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamBadResponse, "fire data was not valid CSV", err)
	}
	return fires, nil
}

// ParseFIRMSCSV decodes a FIRMS area CSV. Columns are located by header name,
// so both VIIRS (bright_ti4) and MODIS (brightness) exports are accepted.
// Rows with unparseable coordinates are skipped.
func ParseFIRMSCSV(r io.Reader) ([]types.FireDetection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []types.FireDetection{}, nil
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["latitude"]; !ok {
		// FIRMS answers bad keys and quota errors with a 200 plain-text body.
		return nil, fmt.Errorf("missing latitude column in header %q", strings.Join(header, ","))
	}

	field := func(rec []string, names ...string) string {
		for _, n := range names {
			if i, ok := cols[n]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
		}
		return ""
	}

	fires := []types.FireDetection{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		lat, errLat := strconv.ParseFloat(field(rec, "latitude"), 64)
		lon, errLon := strconv.ParseFloat(field(rec, "longitude"), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		fires = append(fires, types.FireDetection{
			Lat:        lat,
			Lon:        lon,
			Brightness: parseOptFloat(field(rec, "bright_ti4", "brightness")),
			FRP:        parseOptFloat(field(rec, "frp")),
			Confidence: field(rec, "confidence"),
			AcqDate:    field(rec, "acq_date"),
			AcqTime:    field(rec, "acq_time"),
			Satellite:  field(rec, "satellite"),
			DayNight:   field(rec, "daynight"),
		})
	}
	return fires, nil
}

func parseOptFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
