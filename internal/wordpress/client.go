// Package wordpress implements the remote content system used by deployment:
// a REST client for the WordPress JSON API, an SSH shell for WP-CLI
// operations the API cannot do, and an in-memory fake.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/deploy"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"go.uber.org/zap"
)

const (
	apiPrefix       = "/wp-json/wp/v2"
	maxErrorBody    = 512
	defaultAttempts = 2
)

// Options tune the REST client.
type Options struct {
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration
}

// OptionsFromConfig maps the deploy config section onto Options.
func OptionsFromConfig(cfg config.DeployConfig) Options {
	return Options{
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		Timeout:       cfg.APITimeout,
	}
}

// Client talks to a WordPress site over its REST API. Operations that need
// WP-CLI go through cli, which is nil without shell credentials.
type Client struct {
	siteURL    string
	baseURL    string
	username   string
	password   config.Secret
	httpClient *http.Client
	attempts   int
	delay      time.Duration
	cli        *CLI
	logger     *logging.Logger

	mu      sync.Mutex
	plugins map[string]string // slug -> REST plugin identifier
}

// NewClient creates a client for creds. cli may be nil.
func NewClient(creds *stage.Credentials, opts Options, cli *CLI, logger *logging.Logger) (*Client, error) {
	if !creds.Complete() {
		return nil, errors.New("wordpress: site_url, username and password are required")
	}
	siteURL := strings.TrimRight(strings.TrimSpace(creds.SiteURL), "/")
	u, err := url.Parse(siteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("wordpress: invalid site url %q", siteURL)
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = defaultAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		siteURL:    siteURL,
		baseURL:    siteURL + apiPrefix,
		username:   creds.Username,
		password:   creds.Password,
		httpClient: &http.Client{Timeout: opts.Timeout},
		attempts:   opts.RetryAttempts,
		delay:      opts.RetryDelay,
		cli:        cli,
		logger:     logger.Named("wordpress"),
		plugins:    map[string]string{},
	}, nil
}

// TestConnection reports whether GET /posts answers 200.
func (c *Client) TestConnection(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/posts?per_page=1", nil)
	if err != nil {
		c.logger.Warn(ctx, "connection test failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

type pageRequest struct {
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Slug    string            `json:"slug,omitempty"`
	Status  string            `json:"status"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// CreatePage publishes a page, retrying retryable failures with a fixed delay.
func (c *Client) CreatePage(ctx context.Context, page stage.Page) (*deploy.Record, error) {
	slug := page.SEO.Slug
	if slug == "" {
		slug = page.Slug
	}
	req := pageRequest{
		Title:   page.Title,
		Content: page.ContentHTML,
		Slug:    slug,
		Status:  "publish",
	}
	if page.SEO.MetaDescription != "" {
		req.Meta = map[string]string{"description": page.SEO.MetaDescription}
	}
	return c.createWithRetry(ctx, "create page "+page.Title, "/pages", req)
}

type postRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt,omitempty"`
	Slug       string `json:"slug,omitempty"`
	Status     string `json:"status"`
	Categories []int  `json:"categories,omitempty"`
	Tags       []int  `json:"tags,omitempty"`
}

// CreatePost publishes a post. Only numeric category and tag IDs are sent;
// names are dropped because the API rejects them.
func (c *Client) CreatePost(ctx context.Context, post stage.Post) (*deploy.Record, error) {
	req := postRequest{
		Title:      post.Title,
		Content:    post.ContentHTML,
		Excerpt:    post.Excerpt,
		Slug:       post.Slug,
		Status:     "publish",
		Categories: termIDs(post.Categories),
		Tags:       termIDs(post.Tags),
	}
	return c.createWithRetry(ctx, "create post "+post.Title, "/posts", req)
}

func termIDs(terms []stage.Term) []int {
	var ids []int
	for _, t := range terms {
		if t.ID > 0 {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// createWithRetry makes up to c.attempts attempts with c.delay between them.
func (c *Client) createWithRetry(ctx context.Context, op, path string, body any) (*deploy.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		rec, err := c.postRecord(ctx, op, path, body)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}

		c.logger.Warn(ctx, "remote create failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.attempts),
			zap.Error(err))

		if attempt == c.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(c.delay):
		}
	}
	return nil, fmt.Errorf("%s: %w after %d attempts: %w", op, ErrRetriesExhausted, c.attempts, lastErr)
}

func (c *Client) postRecord(ctx context.Context, op, path string, body any) (*deploy.Record, error) {
	var rec deploy.Record
	if err := c.call(ctx, op, http.MethodPost, path, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// InstallTheme installs a theme through WP-CLI.
func (c *Client) InstallTheme(ctx context.Context, slug string) error {
	if c.cli == nil {
		return ErrShellRequired
	}
	return c.cli.InstallTheme(ctx, slug)
}

// ActivateTheme activates a theme through WP-CLI.
func (c *Client) ActivateTheme(ctx context.Context, slug string) error {
	if c.cli == nil {
		return ErrShellRequired
	}
	return c.cli.ActivateTheme(ctx, slug)
}

type pluginResponse struct {
	Plugin string `json:"plugin"`
	Status string `json:"status"`
}

// InstallPlugin installs a plugin from the directory. A plugin that is
// already installed counts as success.
func (c *Client) InstallPlugin(ctx context.Context, slug string) error {
	var resp pluginResponse
	err := c.call(ctx, "install plugin "+slug, http.MethodPost, "/plugins", map[string]string{"slug": slug}, &resp)
	var re *RemoteError
	switch {
	case err == nil:
		c.rememberPlugin(slug, resp.Plugin)
		return nil
	case errors.As(err, &re) && re.Code == "folder_exists":
		c.logger.Debug(ctx, "plugin already installed", zap.String("plugin", slug))
		return nil
	default:
		return err
	}
}

// ActivatePlugin activates an installed plugin.
func (c *Client) ActivatePlugin(ctx context.Context, slug string) error {
	path := "/plugins/" + c.pluginID(slug)
	return c.call(ctx, "activate plugin "+slug, http.MethodPost, path, map[string]string{"status": "active"}, nil)
}

func (c *Client) rememberPlugin(slug, id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.plugins[slug] = id
	c.mu.Unlock()
}

// pluginID is the REST identifier, "<dir>/<main file>" without .php.
// Unknown plugins are assumed to follow the "<slug>/<slug>" convention.
func (c *Client) pluginID(slug string) string {
	c.mu.Lock()
	id, ok := c.plugins[slug]
	c.mu.Unlock()
	if !ok {
		id = slug + "/" + slug
	}
	return id
}

// CreateMenu creates the menu at its location and adds one custom link per item.
func (c *Client) CreateMenu(ctx context.Context, menu stage.Menu) (*deploy.Record, error) {
	name := menu.Name
	if name == "" {
		name = menu.Location
	}
	body := map[string]any{"name": name}
	if menu.Location != "" {
		body["locations"] = []string{menu.Location}
	}

	var rec deploy.Record
	if err := c.call(ctx, "create menu "+name, http.MethodPost, "/menus", body, &rec); err != nil {
		return nil, err
	}

	for i, item := range menu.Items {
		link := map[string]any{
			"title":      item,
			"menus":      rec.ID,
			"status":     "publish",
			"type":       "custom",
			"url":        c.siteURL + "/" + slugify(item) + "/",
			"menu_order": i + 1,
		}
		if err := c.call(ctx, "create menu item "+item, http.MethodPost, "/menu-items", link, nil); err != nil {
			return &rec, err
		}
	}
	return &rec, nil
}

// restSettings maps option names to their /settings field.
var restSettings = map[string]string{
	"timezone_string": "timezone",
	"blogname":        "title",
	"blogdescription": "description",
}

// SetOption updates a site option. WP-CLI is used when available because
// /settings does not expose every option.
func (c *Client) SetOption(ctx context.Context, name, value string) error {
	if c.cli != nil {
		return c.cli.OptionUpdate(ctx, name, value)
	}
	field, ok := restSettings[name]
	if !ok {
		field = name
	}
	return c.call(ctx, "set option "+name, http.MethodPost, "/settings", map[string]string{field: value}, nil)
}

// call sends a JSON request and decodes a 2xx response into out.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("wordpress: %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	resp, err := c.do(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("wordpress: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		re := &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		var wpErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &wpErr) == nil && wpErr.Code != "" {
			re.Code = wpErr.Code
			re.Body = wpErr.Message
		}
		return re
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wordpress: %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password.Value())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var _ deploy.ContentSystem = (*Client)(nil)
