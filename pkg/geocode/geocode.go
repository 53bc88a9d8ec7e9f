// Package geocode resolves GPS coordinates into human-readable place names
// using a Nominatim-style reverse geocoding endpoint, caching results so a
// photo's location is only looked up once.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"k8s.io/klog/v2"
)

// DefaultBaseURL is the public Nominatim instance. Deployments should point
// at their own.
var DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Client queries a reverse-geocoding endpoint. UserAgent is required by
// Nominatim's usage policy.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Cache      *Cache
}

// New builds a client with sane timeouts.
func New(baseURL string, userAgent string, cache *Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Cache:      cache,
	}
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse resolves coordinates to a place name. Errors are returned so
// callers can decide; most should use Locate, which falls back to formatted
// coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	key := cacheKey(lat, lon)
	if c.Cache != nil {
		if place, ok, err := c.Cache.Get(key); err != nil {
			klog.Warningf("geocode cache get: %v", err)
		} else if ok {
			klog.V(1).Infof("geocode cache hit for %s: %s", key, place)
			return place, nil
		}
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode status %d", resp.StatusCode)
	}

	var rr reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	place := placeName(rr)
	if place == "" {
		return "", fmt.Errorf("no usable address for %s", key)
	}

	if c.Cache != nil {
		if err := c.Cache.Put(key, place); err != nil {
			klog.Warningf("geocode cache put: %v", err)
		}
	}
	return place, nil
}

// Locate is Reverse with the documented degradation: on any failure it
// returns formatted coordinates instead of an error.
func (c *Client) Locate(ctx context.Context, lat, lon float64) string {
	place, err := c.Reverse(ctx, lat, lon)
	if err != nil {
		klog.V(1).Infof("reverse geocode failed, using coordinates: %v", err)
		return FormatCoords(lat, lon)
	}
	return place
}

// placeName probes the address fields from most to least specific and
// attaches the country.
func placeName(rr reverseResponse) string {
	a := rr.Address
	local := ""
	for _, v := range []string{a.City, a.Town, a.Village, a.Hamlet, a.County, a.State} {
		if v != "" {
			local = v
			break
		}
	}
	switch {
	case local != "" && a.Country != "":
		return local + ", " + a.Country
	case local != "":
		return local
	default:
		return a.Country
	}
}

// FormatCoords renders coordinates as a degree string, e.g. "59.91°N, 10.75°E".
func FormatCoords(lat, lon float64) string {
	ns := "N"
	if lat < 0 {
		ns = "S"
	}
	ew := "E"
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s, %.2f°%s", math.Abs(lat), ns, math.Abs(lon), ew)
}

// cacheKey rounds to ~11m so nearby shots share an entry.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
