// Package proxycurl fetches professional profile and company records from
// the Proxycurl enrichment API.
package proxycurl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-engine/internal/model"
)

const (
	defaultBaseURL    = "https://nubela.co/proxycurl/api"
	defaultRatePerSec = 2
)

// Client fetches enrichment records.
type Client interface {
	FetchProfile(ctx context.Context, profileURL string) (*model.RawProfile, error)
	FetchOrganization(ctx context.Context, orgURL string) (*model.RawOrganization, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Proxycurl API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FetchProfile(ctx context.Context, profileURL string) (*model.RawProfile, error) {
	var raw model.RawProfile
	params := url.Values{"linkedin_profile_url": {profileURL}}
	if err := c.get(ctx, "/v2/linkedin", params, &raw); err != nil {
		return nil, eris.Wrap(err, "proxycurl: fetch profile")
	}
	return &raw, nil
}

func (c *httpClient) FetchOrganization(ctx context.Context, orgURL string) (*model.RawOrganization, error) {
	var raw model.RawOrganization
	params := url.Values{"url": {orgURL}}
	if err := c.get(ctx, "/linkedin/company", params, &raw); err != nil {
		return nil, eris.Wrap(err, "proxycurl: fetch organization")
	}
	return &raw, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
