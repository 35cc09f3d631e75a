package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sentinel address strings substituted when the lookup degrades. Neither is
// ever an error: an attendance record with a sentinel place is still valid.
const (
	SentinelNotFound     = "Dirección no encontrada"
	SentinelNoConnection = "Sin conexión a mapas"
)

// Client resolves coordinates to a shortened display address against a
// Nominatim-style reverse geocoding service. Results are cached in Redis
// keyed by rounded coordinates; the cache is optional.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	cache    *redis.Client
	cacheTTL time.Duration
}

// New creates a geocoding client. cache may be nil to disable caching.
func New(baseURL string, cache *redis.Client, cacheTTL time.Duration) *Client {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Reverse returns a human-readable place name for the coordinates. Transport
// failures yield SentinelNoConnection and an empty result yields
// SentinelNotFound; the pipeline continues either way.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) string {
	key := fmt.Sprintf("geocode:%.4f:%.4f", lat, lng)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			return cached
		}
	}

	name, err := c.lookup(ctx, lat, lng)
	if err != nil {
		log.Printf("reverse geocode failed: %v", err)
		return SentinelNoConnection
	}
	if name == "" {
		return SentinelNotFound
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, name, c.cacheTTL).Err(); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}
	return name
}

func (c *Client) lookup(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "asistencia/1.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return Shorten(body.DisplayName), nil
}

// Shorten keeps the first three comma-separated parts of a full display
// address, which is usually enough to identify the place.
func Shorten(displayName string) string {
	if displayName == "" {
		return ""
	}
	parts := strings.Split(displayName, ",")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ",")
}
