package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"ridebook/internal/config"
	"ridebook/internal/service"
)

// GeoapifyClient implements service.Geocoder against the Geoapify REST API.
type GeoapifyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Ensure the interface is satisfied.
var _ service.Geocoder = (*GeoapifyClient)(nil)

// NewGeoapifyClient creates a geocoding/routing client. The configured
// timeout bounds every call.
func NewGeoapifyClient(cfg config.GeoapifyConfig) *GeoapifyClient {
	return &GeoapifyClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type geocodeResponse struct {
	Features []struct {
		Properties struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"properties"`
	} `json:"features"`
}

type routingResponse struct {
	Features []struct {
		Properties struct {
			Distance float64 `json:"distance"` // meters
			Time     float64 `json:"time"`     // seconds
		} `json:"properties"`
	} `json:"features"`
}

// ResolveAddress converts free-form address text to coordinates.
func (g *GeoapifyClient) ResolveAddress(ctx context.Context, address string) (service.Coordinate, error) {
	endpoint := fmt.Sprintf("%s/v1/geocode/search?text=%s&apiKey=%s",
		g.baseURL, url.QueryEscape(address), url.QueryEscape(g.apiKey))

	var resp geocodeResponse
	if err := g.getJSON(ctx, endpoint, &resp); err != nil {
		return service.Coordinate{}, err
	}

	if len(resp.Features) == 0 {
		return service.Coordinate{}, fmt.Errorf("%w: %q", service.ErrGeocoding, address)
	}

	props := resp.Features[0].Properties
	return service.Coordinate{Lat: props.Lat, Lng: props.Lon}, nil
}

// RouteDistance returns the driving route between two points.
func (g *GeoapifyClient) RouteDistance(ctx context.Context, origin, destination service.Coordinate) (service.Route, error) {
	endpoint := fmt.Sprintf("%s/v1/routing?waypoints=%f,%f|%f,%f&mode=drive&apiKey=%s",
		g.baseURL, origin.Lat, origin.Lng, destination.Lat, destination.Lng, url.QueryEscape(g.apiKey))

	var resp routingResponse
	if err := g.getJSON(ctx, endpoint, &resp); err != nil {
		return service.Route{}, err
	}

	if len(resp.Features) == 0 {
		return service.Route{}, service.ErrNoRoute
	}

	props := resp.Features[0].Properties
	return service.Route{
		DistanceKm:  props.Distance / 1000,
		DurationMin: int(math.Round(props.Time / 60)),
	}, nil
}

func (g *GeoapifyClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrExternalService, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: geoapify returned %d", service.ErrExternalService, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", service.ErrExternalService, err)
	}

	return nil
}
