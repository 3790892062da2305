package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentscan/tagview/pkg/metrics"
)

// DefaultTimeout bounds a single request round trip. The UI shows inline
// errors rather than hanging on a dead server.
const DefaultTimeout = 15 * time.Second

// maxErrorSnippet caps how much of an error body is carried into messages.
const maxErrorSnippet = 200

// Client talks to one tab's endpoints. Clients are cheap; use ForTab to
// derive one per tab from a shared base.
type Client struct {
	baseURL    string
	tab        string
	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithLogger attaches a structured logger. Without it the client is silent.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides the timestamp source used for date_updated.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client for the given base URL and tab path segment.
func NewClient(baseURL, tab string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tab:        tab,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForTab returns a copy of the client bound to a different tab. The HTTP
// client and logger are shared.
func (c *Client) ForTab(tab string) *Client {
	clone := *c
	clone.tab = tab
	return &clone
}

// Tab returns the tab path segment this client is bound to.
func (c *Client) Tab() string { return c.tab }

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// CategoriesQuery carries the optional filters for the categories endpoint.
// Empty fields are omitted from the query string, never sent as empty
// values.
type CategoriesQuery struct {
	Store        string
	Type         string
	StatusFilter string
	BinFilter    string
	Filter       string
}

type categoriesEnvelope struct {
	Categories []Category `json:"categories"`
}

type subcatEnvelope struct {
	Subcategories []Subcategory `json:"subcategories"`
	TotalSubcats  int           `json:"total_subcats"`
	PerPage       int           `json:"per_page"`
	Page          int           `json:"page"`
}

type commonNamesEnvelope struct {
	CommonNames      []CommonName `json:"common_names"`
	TotalCommonNames int          `json:"total_common_names"`
	PerPage          int          `json:"per_page"`
	Page             int          `json:"page"`
}

type itemsEnvelope struct {
	Items      []Item `json:"items"`
	TotalItems int    `json:"total_items"`
	PerPage    int    `json:"per_page"`
	Page       int    `json:"page"`
}

type updateEnvelope struct {
	Error string `json:"error"`
}

// Categories fetches the top-level category rows. The endpoint is not
// paginated; the server returns the full set for the store/type context.
func (c *Client) Categories(ctx context.Context, q CategoriesQuery) ([]Category, error) {
	defer metrics.Timer(metrics.CategoriesFetch)()

	vals := url.Values{}
	setOptional(vals, "store", q.Store)
	setOptional(vals, "type", q.Type)
	setOptional(vals, "statusFilter", q.StatusFilter)
	setOptional(vals, "binFilter", q.BinFilter)
	setOptional(vals, "filter", q.Filter)

	var env categoriesEnvelope
	if err := c.getJSON(ctx, "categories", vals, &env); err != nil {
		return nil, err
	}
	for i, cat := range env.Categories {
		if err := cat.Validate(); err != nil {
			return nil, &DataShapeError{Endpoint: "categories", Reason: fmt.Sprintf("record %d: %v", i, err), err: err}
		}
	}
	return env.Categories, nil
}

// Subcategories fetches one page of subcategory rows under a category.
func (c *Client) Subcategories(ctx context.Context, category string, page int) ([]Subcategory, PageInfo, error) {
	defer metrics.Timer(metrics.ListingFetch)()

	vals := url.Values{}
	vals.Set("category", category)
	vals.Set("page", strconv.Itoa(normalizePage(page)))

	var env subcatEnvelope
	if err := c.getJSON(ctx, "subcat_data", vals, &env); err != nil {
		return nil, PageInfo{}, err
	}
	for i, sc := range env.Subcategories {
		if err := sc.Validate(); err != nil {
			return nil, PageInfo{}, &DataShapeError{Endpoint: "subcat_data", Reason: fmt.Sprintf("record %d: %v", i, err), err: err}
		}
	}
	return env.Subcategories, pageInfo(env.TotalSubcats, env.PerPage, env.Page, page), nil
}

// CommonNames fetches one page of common-name rows. subcategory and
// contract are omitted from the query when empty (three-level tabs skip
// the subcategory level; only contract tabs send contract_number).
func (c *Client) CommonNames(ctx context.Context, category, subcategory string, page int, contract string) ([]CommonName, PageInfo, error) {
	defer metrics.Timer(metrics.ListingFetch)()

	vals := url.Values{}
	vals.Set("category", category)
	setOptional(vals, "subcategory", subcategory)
	vals.Set("page", strconv.Itoa(normalizePage(page)))
	setOptional(vals, "contract_number", contract)

	var env commonNamesEnvelope
	if err := c.getJSON(ctx, "common_names", vals, &env); err != nil {
		return nil, PageInfo{}, err
	}
	for i, cn := range env.CommonNames {
		if err := cn.Validate(); err != nil {
			return nil, PageInfo{}, &DataShapeError{Endpoint: "common_names", Reason: fmt.Sprintf("record %d: %v", i, err), err: err}
		}
	}
	return env.CommonNames, pageInfo(env.TotalCommonNames, env.PerPage, env.Page, page), nil
}

// Items fetches one page of tagged items under a common name.
func (c *Client) Items(ctx context.Context, category, subcategory, commonName string, page int) ([]Item, PageInfo, error) {
	defer metrics.Timer(metrics.ListingFetch)()

	vals := url.Values{}
	vals.Set("category", category)
	setOptional(vals, "subcategory", subcategory)
	vals.Set("common_name", commonName)
	vals.Set("page", strconv.Itoa(normalizePage(page)))

	var env itemsEnvelope
	if err := c.getJSON(ctx, "data", vals, &env); err != nil {
		return nil, PageInfo{}, err
	}
	for i, it := range env.Items {
		if err := it.Validate(); err != nil {
			return nil, PageInfo{}, &DataShapeError{Endpoint: "data", Reason: fmt.Sprintf("record %d: %v", i, err), err: err}
		}
	}
	return env.Items, pageInfo(env.TotalItems, env.PerPage, env.Page, page), nil
}

// UpdateField posts a single changed item field to its update endpoint.
// The server acknowledges with {} or rejects with {"error": "..."}; the
// latter surfaces as a *FetchError even on a 2xx status.
func (c *Client) UpdateField(ctx context.Context, field Field, tagID, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unknown editable field %q", field)
	}
	defer metrics.Timer(metrics.FieldUpdate)()

	payload := map[string]string{
		"tag_id":       tagID,
		string(field):  value,
		"date_updated": c.now().UTC().Format(time.RFC3339),
	}

	var env updateEnvelope
	if err := c.postJSON(ctx, field.Endpoint(), payload, &env); err != nil {
		return err
	}
	if env.Error != "" {
		return &FetchError{Status: http.StatusOK, Message: env.Error, URL: c.endpointURL(field.Endpoint())}
	}
	return nil
}

// endpointURL joins base URL, tab and endpoint path.
func (c *Client) endpointURL(endpoint string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.tab, endpoint)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, vals url.Values, out any) error {
	u := c.endpointURL(endpoint)
	if len(vals) > 0 {
		u += "?" + vals.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{URL: u, Message: err.Error(), err: err}
	}
	return c.do(req, out, false)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	u := c.endpointURL(endpoint)
	body, err := json.Marshal(payload)
	if err != nil {
		return &FetchError{URL: u, Message: fmt.Sprintf("encode request: %v", err), err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return &FetchError{URL: u, Message: err.Error(), err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out, true)
}

// do executes the request and decodes the JSON body into out. Non-2xx
// statuses and undecodable bodies become *FetchError. A POST with an empty
// 2xx body counts as success.
func (c *Client) do(req *http.Request, out any, allowEmpty bool) error {
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("url", req.URL.String()),
			zap.String("request_id", reqID),
			zap.Error(err))
		return &FetchError{URL: req.URL.String(), Message: err.Error(), err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Status: resp.StatusCode, URL: req.URL.String(), Message: fmt.Sprintf("read response: %v", err), err: err}
	}

	c.log.Debug("request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Status: resp.StatusCode, URL: req.URL.String(), Message: snippet(body)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if allowEmpty {
			return nil
		}
		return &FetchError{Status: resp.StatusCode, URL: req.URL.String(), Message: "empty response body"}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Status: resp.StatusCode, URL: req.URL.String(), Message: fmt.Sprintf("invalid JSON: %v", err), err: err}
	}
	return nil
}

// setOptional adds key=val only when val is non-empty. Optional filters are
// omitted, not sent as empty strings.
func setOptional(vals url.Values, key, val string) {
	if val != "" {
		vals.Set(key, val)
	}
}

// normalizePage clamps a requested page to 1 or above.
func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// pageInfo builds a PageInfo from an envelope, falling back to the
// requested page when the server omits the echo.
func pageInfo(total, perPage, echoed, requested int) PageInfo {
	page := echoed
	if page < 1 {
		page = normalizePage(requested)
	}
	return PageInfo{Total: total, PerPage: perPage, Page: page}
}

// Snippet of an error body for messages; control characters collapsed.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "…"
	}
	if s == "" {
		s = "no response body"
	}
	return s
}
