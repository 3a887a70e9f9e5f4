// Package npm implements the package metadata source backed by an
// npm-compatible registry. It fetches each package's packument (the
// document listing every published version) once, caches it, and serves
// version lists and per-version manifests from it.
package npm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkglens/pkglens/pkg/cache"
	"github.com/pkglens/pkglens/pkg/registry"
	"github.com/pkglens/pkglens/pkg/resolve"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// Client fetches package metadata from an npm registry.
// It implements resolve.MetadataSource.
type Client struct {
	http    *registry.Client
	baseURL string
	refresh bool
}

// NewClient creates a registry client. An empty baseURL selects the public
// npm registry. Responses are cached in c with the given TTL.
func NewClient(c cache.Cache, ttl time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: registry.NewClient(c, ttl, map[string]string{
			// The abbreviated packument omits platform constraints, so ask
			// for the full document.
			"Accept": "application/json",
		}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// SetRefresh makes subsequent fetches bypass the response cache.
func (c *Client) SetRefresh(refresh bool) { c.refresh = refresh }

// Versions returns every published version of a package.
func (c *Client) Versions(ctx context.Context, name string) ([]string, error) {
	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(doc.Versions))
	for v := range doc.Versions {
		versions = append(versions, v)
	}
	return versions, nil
}

// Manifest returns the manifest of one published version.
func (c *Client) Manifest(ctx context.Context, name, version string) (*resolve.Manifest, error) {
	doc, err := c.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	raw, ok := doc.Versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", registry.ErrNotFound, name, version)
	}
	return parseManifest(name, version, raw)
}

func (c *Client) packument(ctx context.Context, name string) (*packument, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty package name", registry.ErrNotFound)
	}

	var doc packument
	err := c.http.Cached(ctx, "npm", name, c.refresh, &doc, func() error {
		return c.http.GetJSON(ctx, c.packageURL(name), &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// packageURL builds the packument URL. Scoped names keep their leading "@"
// but the separating slash is percent-encoded, per registry convention.
func (c *Client) packageURL(name string) string {
	if strings.HasPrefix(name, "@") {
		if scope, rest, ok := strings.Cut(name[1:], "/"); ok {
			return c.baseURL + "/@" + url.PathEscape(scope) + "%2F" + url.PathEscape(rest)
		}
	}
	return c.baseURL + "/" + url.PathEscape(name)
}

var _ resolve.MetadataSource = (*Client)(nil)
