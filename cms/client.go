// Package cms reads published projects from the headless CMS over its HTTP query API.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures a Client.
type Options struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	CacheTTL   time.Duration
	// BaseURL overrides https://<project>.api.sanity.io, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// Client runs GROQ queries and caches the raw results for CacheTTL.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	cache      *cache.Cache
	logger     zerolog.Logger
}

// queryResponse is the envelope returned by the query endpoint.
type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
}

type errorResponse struct {
	Error struct {
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"error"`
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io", opts.ProjectID)
	}
	version := strings.TrimPrefix(opts.APIVersion, "v")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &Client{
		endpoint:   fmt.Sprintf("%s/v%s/data/query/%s", base, version, opts.Dataset),
		token:      opts.Token,
		httpClient: httpClient,
		cache:      cache.New(ttl, 2*ttl),
		logger:     log.With().Str("service", "cmsClient").Logger(),
	}
}

// Query runs a GROQ query against the published perspective and decodes its
// result into out. Params are encoded as JSON, so string values arrive quoted
// and numbers arrive as numbers.
func (c *Client) Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) error {
	values := url.Values{}
	values.Set("query", query)
	values.Set("perspective", "published")
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		encoded, err := json.Marshal(params[key])
		if err != nil {
			return fmt.Errorf("failed to encode query param %s: %w", key, err)
		}
		values.Set("$"+key, string(encoded))
	}
	requestURL := c.endpoint + "?" + values.Encode()

	if cached, ok := c.cache.Get(requestURL); ok {
		return json.Unmarshal(cached.([]byte), out)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create cms request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send cms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read cms response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Description != "" {
			return fmt.Errorf("cms query error (status %d): %s", resp.StatusCode, errResp.Error.Description)
		}
		return fmt.Errorf("cms query error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope queryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode cms response: %w", err)
	}
	c.logger.Debug().Int("ms", envelope.Ms).Msg("cms query")

	c.cache.SetDefault(requestURL, []byte(envelope.Result))
	return json.Unmarshal(envelope.Result, out)
}

// Flush drops every cached result.
func (c *Client) Flush() {
	c.cache.Flush()
}
