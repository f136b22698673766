package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wpm/internal/logger"
)

const (
	apiBase        = "/wp-json/wc/v3"
	maxAttempts    = 3
	baseRetryDelay = 500 * time.Millisecond
	maxRetryDelay  = 5 * time.Second
	maxBodySnippet = 512
)

// APIError is a failed request against the remote catalog API. Status is 0
// for network-level failures. Callers must never treat an APIError as
// "no more pages"; only an empty successful page ends pagination.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("woocommerce: request failed: %s", e.Body)
	}
	return fmt.Sprintf("woocommerce: API request failed: %d - %s", e.Status, e.Body)
}

// ConnectionCheck is the structured result of TestConnection. It is always
// populated; TestConnection never returns an error.
type ConnectionCheck struct {
	Reachable     bool          `json:"reachable"`
	Authenticated bool          `json:"authenticated"`
	StatusCode    int           `json:"status_code"`
	Elapsed       time.Duration `json:"elapsed_ms"`
	Message       string        `json:"message"`
}

// Client talks to one shop's WooCommerce REST API with decrypted
// consumer key/secret credentials.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *logger.Logger
}

func NewClient(baseURL, consumerKey, consumerSecret string, log *logger.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// TestConnection probes the shop twice: an unauthenticated reachability
// check against the site root, then an authenticated one-product fetch.
func (c *Client) TestConnection(ctx context.Context) ConnectionCheck {
	start := time.Now()
	check := ConnectionCheck{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		check.Elapsed = time.Since(start)
		check.Message = fmt.Sprintf("invalid base URL: %v", err)
		return check
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		check.Elapsed = time.Since(start)
		check.Message = fmt.Sprintf("shop unreachable: %v", err)
		return check
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	check.Reachable = true
	check.StatusCode = resp.StatusCode

	query := url.Values{}
	query.Set("per_page", "1")
	body, err := c.get(ctx, "/products", query)
	check.Elapsed = time.Since(start)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Status != 0 {
			check.StatusCode = apiErr.Status
		}
		check.Message = fmt.Sprintf("authenticated probe failed: %v", err)
		return check
	}

	var probe []json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		check.Message = "authenticated probe returned unexpected payload"
		return check
	}
	check.Authenticated = true
	check.Message = "ok"
	return check
}

func (c *Client) ListCategories(ctx context.Context, page, perPage int) ([]Category, error) {
	var categories []Category
	if err := c.getPage(ctx, "/products/categories", page, perPage, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) ListBrands(ctx context.Context, page, perPage int) ([]Brand, error) {
	var brands []Brand
	if err := c.getPage(ctx, "/products/brands", page, perPage, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]Product, error) {
	var products []Product
	if err := c.getPage(ctx, "/products", page, perPage, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) ListVariations(ctx context.Context, productID int64, page, perPage int) ([]Variation, error) {
	var variations []Variation
	path := fmt.Sprintf("/products/%d/variations", productID)
	if err := c.getPage(ctx, path, page, perPage, &variations); err != nil {
		return nil, err
	}
	return variations, nil
}

// ForEachCategoryPage walks all category pages in order, invoking fn per
// page, stopping after the first empty or short page. The same contract
// applies to the other ForEach helpers: an error from fn or from a fetch
// stops the walk immediately.
func (c *Client) ForEachCategoryPage(ctx context.Context, perPage int, fn func(page int, items []Category) error) error {
	for page := 1; ; page++ {
		items, err := c.ListCategories(ctx, page, perPage)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			if err := fn(page, items); err != nil {
				return err
			}
		}
		if len(items) < perPage {
			return nil
		}
	}
}

func (c *Client) ForEachBrandPage(ctx context.Context, perPage int, fn func(page int, items []Brand) error) error {
	for page := 1; ; page++ {
		items, err := c.ListBrands(ctx, page, perPage)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			if err := fn(page, items); err != nil {
				return err
			}
		}
		if len(items) < perPage {
			return nil
		}
	}
}

func (c *Client) ForEachProductPage(ctx context.Context, perPage int, fn func(page int, items []Product) error) error {
	for page := 1; ; page++ {
		items, err := c.ListProducts(ctx, page, perPage)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			if err := fn(page, items); err != nil {
				return err
			}
		}
		if len(items) < perPage {
			return nil
		}
	}
}

func (c *Client) ForEachVariationPage(ctx context.Context, productID int64, perPage int, fn func(page int, items []Variation) error) error {
	for page := 1; ; page++ {
		items, err := c.ListVariations(ctx, productID, page, perPage)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			if err := fn(page, items); err != nil {
				return err
			}
		}
		if len(items) < perPage {
			return nil
		}
	}
}

func (c *Client) getPage(ctx context.Context, path string, page, perPage int, out interface{}) error {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Body: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}

// get issues one authenticated GET with bounded retries: network errors
// and 5xx responses are retried with exponential backoff, 4xx responses
// are permanent and returned immediately.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.consumerKey)
	query.Set("consumer_secret", c.consumerSecret)
	fullURL := c.baseURL + apiBase + path + "?" + query.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := baseRetryDelay << (attempt - 2)
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			c.logger.Debug("Retrying %s in %s (attempt %d/%d)", path, delay, attempt, maxAttempts)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &APIError{Body: ctx.Err().Error()}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, &APIError{Body: err.Error()}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &APIError{Body: err.Error()}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &APIError{Status: resp.StatusCode, Body: err.Error()}
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &APIError{Status: resp.StatusCode, Body: snippet(body)}
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, &APIError{Status: resp.StatusCode, Body: snippet(body)}
		}
		return body, nil
	}
	return nil, lastErr
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) > maxBodySnippet {
		s = s[:maxBodySnippet]
	}
	return s
}
