package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com"

var ErrNoAPIKey = errors.New("geo: timezone API key not configured")

type timezoneResponse struct {
	Status       string `json:"status"`
	TimeZoneID   string `json:"timeZoneId"`
	ErrorMessage string `json:"errorMessage"`
}

// TimezoneClient resolves coordinates to an IANA zone id through the Google
// Time Zone API.
type TimezoneClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewTimezoneClient(apiKey string) *TimezoneClient {
	return &TimezoneClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

// WithBaseURL is intended for tests.
func (c *TimezoneClient) WithBaseURL(base string) *TimezoneClient {
	c.baseURL = base
	return c
}

func (c *TimezoneClient) Lookup(ctx context.Context, lat, lng float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/maps/api/timezone/json?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("TimezoneClient.Lookup: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("TimezoneClient.Lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("TimezoneClient.Lookup: unexpected status %d", resp.StatusCode)
	}

	var body timezoneResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("TimezoneClient.Lookup: decode: %w", err)
	}

	if body.Status != "OK" || body.TimeZoneID == "" {
		return "", fmt.Errorf("TimezoneClient.Lookup: status %s: %s", body.Status, body.ErrorMessage)
	}

	return body.TimeZoneID, nil
}
