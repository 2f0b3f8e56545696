package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
	"github.com/shelfmatch/shelfmatch/internal/service"
)

// elementTimeout bounds each per-field element query once the page has
// loaded; a missing field should not eat the whole lookup budget.
const elementTimeout = 3 * time.Second

// browserClient drives a headless Chrome through rod for storefronts that
// only render product tiles client-side. Each lookup gets a fresh stealth
// page; the browser itself is launched per call and torn down with it,
// mirroring the lifetime of a lookup.
type browserClient struct {
	baseURL    string
	browserURL string
	timeout    time.Duration
	retry      service.RetryOptions
}

func newBrowserClient(cfg Config) *browserClient {
	return &browserClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		browserURL: cfg.BrowserURL,
		timeout:    cfg.timeout(),
		retry:      cfg.Retry,
	}
}

// Lookup navigates to the SKU search page and extracts product fields from
// the first tile. A crashed or unreachable browser gets retried with
// backoff inside the lookup deadline; field extraction is tolerant, so a
// selector that never appears leaves its field nil rather than failing
// the attempt.
func (c *browserClient) Lookup(ctx context.Context, productKey string) (model.ProductDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var details model.ProductDetails
	err := common.WithRetry(ctx, func() error {
		var attemptErr error
		details, attemptErr = c.fetch(ctx, productKey)
		return attemptErr
	}, c.retry)
	if err != nil {
		return model.ProductDetails{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	return details, nil
}

// fetch runs one browser attempt: connect, navigate, extract.
func (c *browserClient) fetch(ctx context.Context, productKey string) (model.ProductDetails, error) {
	browser, cleanup, err := c.connect(ctx)
	if err != nil {
		return model.ProductDetails{}, err
	}
	defer cleanup()

	page, err := stealth.Page(browser)
	if err != nil {
		return model.ProductDetails{}, err
	}
	page = page.Context(ctx)

	searchURL := fmt.Sprintf("%s/search?search-bar=%s", c.baseURL, url.QueryEscape(productKey))
	if err := page.Navigate(searchURL); err != nil {
		return model.ProductDetails{}, err
	}
	if err := page.WaitLoad(); err != nil {
		return model.ProductDetails{}, err
	}

	var details model.ProductDetails
	details.Brand = elementText(page, selectorBrand)
	details.Name = elementText(page, selectorName)
	details.Price = elementText(page, selectorPrice)
	details.WasPrice = elementText(page, selectorWasPrice)

	if href := elementAttribute(page, selectorTileLink, "href"); href != nil {
		parts := strings.Split(strings.TrimRight(*href, "/"), "/")
		if number := parts[len(parts)-1]; number != "" {
			details.ProductNumber = &number
		}
	}
	details.ImageURL = elementAttribute(page, selectorTileImage, "src")

	return details, nil
}

// connect attaches to a remote Chrome when configured, otherwise launches
// a local headless one. The returned cleanup tears both down.
func (c *browserClient) connect(ctx context.Context) (*rod.Browser, func(), error) {
	if c.browserURL != "" {
		browser := rod.New().ControlURL(c.browserURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			return nil, nil, err
		}
		return browser, func() { _ = browser.Close() }, nil
	}

	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		// A launch failure is usually a missing Chrome binary, which no
		// amount of retrying fixes.
		return nil, nil, &common.RetryableError{Err: err, Retryable: common.IsRetryable(err)}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, err
	}

	cleanup := func() {
		_ = browser.Close()
		l.Kill()
	}
	return browser, cleanup, nil
}

func elementText(page *rod.Page, selector string) *string {
	el, err := page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return nil
	}
	text, err := el.Text()
	if err != nil {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}

func elementAttribute(page *rod.Page, selector, name string) *string {
	el, err := page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return nil
	}
	attr, err := el.Attribute(name)
	if err != nil || attr == nil {
		return nil
	}
	value := strings.TrimSpace(*attr)
	if value == "" {
		return nil
	}
	return &value
}
