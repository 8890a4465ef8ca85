// Package forge talks to the package forge: latest-version lookups for the
// update checker and archive downloads for the installer. Lookups go through
// a SQLite cache; HTTP calls retry transient failures.
package forge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/gnu-octave/pkg-tool/pkg/types"
)

// DefaultURL is the public package forge.
const DefaultURL = "https://packages.octave.org"

// Client resolves package versions and fetches release archives.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	cache   *Cache
	log     *zap.Logger
}

// NewClient returns a Client for the forge at baseURL. cache may be nil, in
// which case every lookup hits the network. A nil logger is replaced with a
// no-op one.
func NewClient(baseURL string, cache *Cache, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
		cache:   cache,
		log:     log,
	}
}

// latestResponse is the forge's latest-version lookup payload.
type latestResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Latest returns the newest published version of name. Cached answers are
// used while fresh; a 404 from the forge is ErrNotFound.
func (c *Client) Latest(name string) (string, error) {
	if c.cache != nil {
		if v, ok, err := c.cache.Get(name); err == nil && ok {
			c.log.Debug("forge lookup served from cache",
				zap.String("name", name), zap.String("version", v))
			return v, nil
		}
	}

	u := fmt.Sprintf("%s/api/v1/latest/%s", c.baseURL, url.PathEscape(name))
	resp, err := c.http.Get(u)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrFetch, name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, name)
	default:
		return "", fmt.Errorf("%w: %s: forge returned %s", types.ErrFetch, name, resp.Status)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %s: decoding response: %v", types.ErrFetch, name, err)
	}
	if !types.ValidVersion(body.Version) {
		return "", fmt.Errorf("%w: %s: forge reported version %q", types.ErrFetch, name, body.Version)
	}

	if c.cache != nil {
		if err := c.cache.Put(name, body.Version); err != nil {
			c.log.Warn("caching forge lookup failed", zap.String("name", name), zap.Error(err))
		}
	}
	return body.Version, nil
}

// Fetch resolves a source locator to a local archive path in destDir.
// Three locator forms are accepted:
//
//   - an existing local file path, used as-is;
//   - an http(s) URL, downloaded;
//   - a bare package name, resolved to its latest forge release and downloaded.
func (c *Client) Fetch(source, destDir string) (string, error) {
	if _, err := os.Stat(source); err == nil {
		return source, nil
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return c.download(source, destDir)
	}
	return c.FetchPackage(source, destDir)
}

// FetchPackage resolves name to its latest forge release and downloads it,
// ignoring any local file of the same name.
func (c *Client) FetchPackage(name, destDir string) (string, error) {
	version, err := c.Latest(name)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/download/%s-%s.tar.gz", c.baseURL, url.PathEscape(name), version)
	return c.download(u, destDir)
}

// download fetches rawURL into destDir and returns the local path.
func (c *Client) download(rawURL, destDir string) (string, error) {
	resp, err := c.http.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrFetch, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: forge returned %s", types.ErrFetch, rawURL, resp.Status)
	}

	name := filepath.Base(rawURL)
	if name == "." || name == "/" || name == "" {
		name = "package.tar.gz"
	}
	dest := filepath.Join(destDir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", types.ErrFetch, dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("%w: writing %s: %v", types.ErrFetch, dest, err)
	}
	c.log.Debug("downloaded archive", zap.String("url", rawURL), zap.String("dest", dest))
	return dest, nil
}
