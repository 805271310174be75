package guide

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"ugm/config"
)

// ErrNotFound marks a topic or asset endpoint that returned a missing
// resource response. Some guide sections come and go on the vendor side, so
// callers decide whether this is fatal.
var ErrNotFound = errors.New("not found")

// stringsPattern extracts language dependent UI strings embedded as
// javascript assignments into the welcome page.
var stringsPattern = regexp.MustCompile(`strings\["([a-zA-Z0-9.]+)"]\s*=\s*"([^"]+)";`)

// Client is the session-bearing API client. After Login it is read-only and
// safe for concurrent use by multiple fetch workers - the only shared piece
// is the cookie jar of the underlying http client.
type Client struct {
	base      string
	lookupURL string
	lang      string
	legacy    bool

	http *http.Client
	log  *zap.Logger
}

// NewClient creates a client for the given network configuration. The guide
// language is checked to be a well-formed tag (API uses ll_RR spelling).
func NewClient(cfg *config.NetworkConfig, lang string, log *zap.Logger) (*Client, error) {
	if _, err := language.Parse(strings.ReplaceAll(lang, "_", "-")); err != nil {
		return nil, fmt.Errorf("unable to parse guide language %q: %w", lang, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create cookie jar: %w", err)
	}

	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		lookupURL: strings.TrimRight(cfg.VRMLookupURL, "/"),
		lang:      lang,
		http: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		log: log.Named("guide"),
	}, nil
}

// Language returns the guide language the client was created with.
func (c *Client) Language() string {
	return c.lang
}

// apiBase returns service base path, taking the legacy redirect observed
// during login into account.
func (c *Client) apiBase() string {
	if c.legacy {
		return c.base + "/legacy"
	}
	return c.base
}

// ResolveVehicleID turns the user supplied identifier into a VIN. A 17
// character input is validated to be a brand VIN, anything shorter is
// treated as a UK registration plate and resolved via the lookup service.
func (c *Client) ResolveVehicleID(ctx context.Context, id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) == 0 {
		return "", errors.New("no vehicle identifier has been specified")
	}
	if len(id) == 17 {
		if !strings.HasPrefix(id, "WVGZZZ") {
			return "", errors.New(`VIN "***" does not belong to the expected brand (WVGZZZ prefix)`)
		}
		return id, nil
	}

	var lookup vrmLookupResponse
	if err := c.getJSON(ctx, c.lookupURL+"/"+url.PathEscape(id), &lookup); err != nil {
		return "", fmt.Errorf("unable to look up registration plate: %w", err)
	}
	if lookup.Error != nil {
		return "", fmt.Errorf("registration plate is not known to the lookup service: %s", *lookup.Error)
	}
	return lookup.VehicleDetails.VIN, nil
}

// Login creates the vendor session cookie for the VIN and detects whether
// the session was redirected to the legacy service flavor.
func (c *Client) Login(ctx context.Context, vin string) error {
	form := url.Values{"vin": {vin}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/public/vin/login/%s", c.base, c.lang),
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to create session: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session login failed with status %d", resp.StatusCode)
	}

	// the service may bounce older vehicles to its legacy flavor, all
	// subsequent calls must follow
	c.legacy = strings.Contains(resp.Request.URL.String(), "legacy")
	c.log.Debug("Session established", zap.Bool("legacy", c.legacy))
	return nil
}

// SearchManuals lists welcome manuals available for the session vehicle.
func (c *Client) SearchManuals(ctx context.Context) ([]Manual, error) {
	u := fmt.Sprintf("%s/api/web/V6/search?query=&facetfilters=topic-type_%%7C_welcome&lang=%s&page=0&pageSize=20",
		c.apiBase(), url.QueryEscape(c.lang))

	var sr searchResponse
	if err := c.getJSON(ctx, u, &sr); err != nil {
		return nil, fmt.Errorf("unable to search for manuals: %w", err)
	}
	if len(sr.AvailableLanguages) > 0 {
		c.log.Info("Languages available for this vehicle", zap.Strings("languages", sr.AvailableLanguages))
	}
	return sr.Results, nil
}

// topicURL builds the topic endpoint URL for a content key.
func (c *Client) topicURL(key string) string {
	return fmt.Sprintf("%s/api/web/V6/topic?key=%s&displaytype=topic&language=%s&query=undefined",
		c.apiBase(), url.QueryEscape(key), url.QueryEscape(c.lang))
}

// FetchGuide loads the root topic of a manual: the topic tree plus abstract
// markup with the vehicle model spans.
func (c *Client) FetchGuide(ctx context.Context, topicID string) (*Guide, error) {
	var tr topicResponse
	if err := c.getJSON(ctx, c.topicURL(topicID), &tr); err != nil {
		return nil, fmt.Errorf("unable to fetch guide structure: %w", err)
	}
	if len(tr.Trees) == 0 {
		return nil, fmt.Errorf("guide %q has no topic tree", topicID)
	}
	return &Guide{
		Topics:       tr.Trees[0].Children,
		AbstractText: tr.AbstractText,
	}, nil
}

// FetchTopic retrieves the content fragment of a single leaf topic. A
// missing topic is reported as ErrNotFound.
func (c *Client) FetchTopic(ctx context.Context, key string) (*ContentFragment, error) {
	var tr topicResponse
	if err := c.getJSON(ctx, c.topicURL(key), &tr); err != nil {
		return nil, err
	}
	refs := tr.LinkState
	if refs == nil {
		refs = make(RefMap)
	}
	return &ContentFragment{BodyHTML: tr.BodyHTML, Refs: refs}, nil
}

// FetchStrings scrapes language dependent UI strings from the welcome page.
func (c *Client) FetchStrings(ctx context.Context) (map[string]string, error) {
	body, err := c.getText(ctx, fmt.Sprintf("%s/w/%s/welcome/", c.apiBase(), c.lang))
	if err != nil {
		return nil, fmt.Errorf("unable to fetch welcome page: %w", err)
	}

	strs := make(map[string]string)
	for _, m := range stringsPattern.FindAllStringSubmatch(body, -1) {
		strs[m[1]] = m[2]
	}
	return strs, nil
}

// FetchPage returns the raw HTML of the online landing page, used to
// discover linked stylesheets.
func (c *Client) FetchPage(ctx context.Context) (string, error) {
	return c.getText(ctx, fmt.Sprintf("%s/w/%s/", c.apiBase(), c.lang))
}

// FetchStylesheet downloads stylesheet text. Encoding is known to be UTF-8
// even though response headers give no indication.
func (c *Client) FetchStylesheet(ctx context.Context, href string) (string, error) {
	return c.getText(ctx, c.AbsoluteURL(href))
}

// AbsoluteURL resolves a server-relative reference against the session base
// path. Absolute references are returned unchanged.
func (c *Client) AbsoluteURL(ref string) string {
	if strings.HasPrefix(ref, "https:") || strings.HasPrefix(ref, "http:") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.apiBase() + ref
}

// Download streams the file at url into dest creating directories as needed.
func (c *Client) Download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to download %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("download %q: %w", rawURL, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %q failed with status %d", rawURL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("unable to create directory for %q: %w", dest, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("unable to write %q: %w", dest, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("unable to decode response from %q: %w", rawURL, err)
	}
	return nil
}

func (c *Client) getText(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("unable to read response from %q: %w", rawURL, err)
	}
	return string(data), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %q failed: %w", rawURL, err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%q: %w", rawURL, ErrNotFound)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("request to %q failed with status %d", rawURL, resp.StatusCode)
	}
}
