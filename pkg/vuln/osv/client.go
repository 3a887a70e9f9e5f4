// Package osv implements the vulnerability source backed by the OSV.dev
// database. Each resolved package version maps to one POST /v1/query call
// against the npm ecosystem; responses are cached per version.
package osv

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pkglens/pkglens/pkg/cache"
	"github.com/pkglens/pkglens/pkg/registry"
	"github.com/pkglens/pkglens/pkg/vuln"
)

// DefaultBaseURL is the public OSV.dev API.
const DefaultBaseURL = "https://api.osv.dev"

// Client queries the OSV database for npm package vulnerabilities.
// It implements vuln.Source.
type Client struct {
	http    *registry.Client
	baseURL string
	refresh bool
}

// NewClient creates an OSV client. An empty baseURL selects the public
// API. Responses are cached in c with the given TTL.
func NewClient(c cache.Cache, ttl time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    registry.NewClient(c, ttl, nil),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// SetRefresh makes subsequent queries bypass the response cache.
func (c *Client) SetRefresh(refresh bool) { c.refresh = refresh }

type queryRequest struct {
	Version string       `json:"version"`
	Package queryPackage `json:"package"`
}

type queryPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type queryResponse struct {
	Vulns []record `json:"vulns"`
}

type record struct {
	ID               string      `json:"id"`
	Summary          string      `json:"summary"`
	Details          string      `json:"details"`
	Aliases          []string    `json:"aliases"`
	References       []reference `json:"references"`
	DatabaseSpecific struct {
		Severity string `json:"severity"`
	} `json:"database_specific"`
}

type reference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Query returns the known vulnerabilities of one package version. A
// version absent from the database yields an empty result, not an error.
func (c *Client) Query(ctx context.Context, name, version string) ([]vuln.Summary, error) {
	var resp queryResponse
	key := name + "@" + version
	err := c.http.Cached(ctx, "osv", key, c.refresh, &resp, func() error {
		req := queryRequest{
			Version: version,
			Package: queryPackage{Name: name, Ecosystem: "npm"},
		}
		err := c.http.PostJSON(ctx, c.baseURL+"/v1/query", req, &resp)
		if errors.Is(err, registry.ErrNotFound) {
			// Unknown to the database: cache the empty answer.
			resp = queryResponse{}
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]vuln.Summary, 0, len(resp.Vulns))
	for _, rec := range resp.Vulns {
		if s, ok := parseRecord(rec); ok {
			summaries = append(summaries, s)
		}
	}
	return summaries, nil
}

// parseRecord converts one OSV record, tolerating partial data. Only the
// identifier is mandatory.
func parseRecord(rec record) (vuln.Summary, bool) {
	if rec.ID == "" {
		return vuln.Summary{}, false
	}
	summary := rec.Summary
	if summary == "" {
		summary = firstLine(rec.Details)
	}
	return vuln.Summary{
		ID:       rec.ID,
		Summary:  summary,
		Severity: vuln.ParseSeverity(rec.DatabaseSpecific.Severity),
		Aliases:  rec.Aliases,
		URL:      advisoryURL(rec.References),
	}, true
}

// advisoryURL prefers the ADVISORY reference, falling back to the first
// reference of any type.
func advisoryURL(refs []reference) string {
	for _, r := range refs {
		if strings.EqualFold(r.Type, "ADVISORY") && r.URL != "" {
			return r.URL
		}
	}
	for _, r := range refs {
		if r.URL != "" {
			return r.URL
		}
	}
	return ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

var _ vuln.Source = (*Client)(nil)
