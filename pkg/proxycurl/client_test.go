package proxycurl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/linkedin", r.URL.Path)
		assert.Equal(t, "https://linkedin.com/in/jane-doe", r.URL.Query().Get("linkedin_profile_url"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"full_name":"Jane Doe","occupation":"VP of Engineering","connections":750}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	raw, err := c.FetchProfile(context.Background(), "https://linkedin.com/in/jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", raw.FullName)
	assert.Equal(t, 750, raw.Connections)
}

func TestFetchOrganization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/linkedin/company", r.URL.Path)
		assert.Equal(t, "https://linkedin.com/company/acme", r.URL.Query().Get("url"))
		w.Write([]byte(`{"name":"Acme Corp","company_size":1200,"industry":"Software"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	raw, err := c.FetchOrganization(context.Background(), "https://linkedin.com/company/acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", raw.Name)
	assert.Equal(t, 1200, raw.CompanySize)
}

func TestFetchProfileNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"description":"profile not found"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.FetchProfile(context.Background(), "https://linkedin.com/in/nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchProfileMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"full_name":`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.FetchProfile(context.Background(), "https://linkedin.com/in/jane")
	assert.Error(t, err)
}
