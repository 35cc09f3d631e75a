package timeclient

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// displayLayout matches the day-first format used across records and the
// watermark (no zero padding, like the reference locale).
const displayLayout = "2/1/2006 15:04:05"

// Client fetches a trusted timestamp from a network time authority. Any
// failure falls back to local device time; a caller never sees an error.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	clock func() time.Time
}

// New creates a client for the given time API endpoint.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		clock:   time.Now,
	}
}

// Now returns a display-formatted timestamp, preferring the network time
// authority and falling back to the local clock on any failure.
func (c *Client) Now(ctx context.Context) string {
	if t, err := c.fetch(ctx); err == nil {
		return FormatDisplay(t)
	} else {
		log.Printf("trusted time unavailable, using local clock: %v", err)
	}
	return FormatDisplay(c.clock())
}

func (c *Client) fetch(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, &statusError{code: resp.StatusCode}
	}

	var body struct {
		UTCDatetime string `json:"utc_datetime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, body.UTCDatetime)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDisplay renders t in the local timezone using the display layout.
func FormatDisplay(t time.Time) string {
	return t.Local().Format(displayLayout)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
