package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"

// Storefront search-result selectors. The search page renders the best SKU
// match as the first product tile.
const (
	selectorBrand     = ".product-name__item--brand"
	selectorName      = ".product-name__item--name"
	selectorPrice     = ".selling-price-list__item__price--now-price__value"
	selectorWasPrice  = ".selling-price-list__item__price--was-price__value"
	selectorTileLink  = ".product-tile__details__info__name__link"
	selectorTileImage = ".responsive-image--product-tile-image"
	selectorPageData  = "script#__NEXT_DATA__"
)

// httpClient scrapes the storefront search page over plain HTTP. Sites
// that render product tiles server-side (or embed the search results as a
// JSON payload) resolve fine without a browser; for script-only rendering
// use the browser provider instead.
type httpClient struct {
	client  *retryablehttp.Client
	baseURL string
	timeout time.Duration
}

func newHTTPClient(cfg Config) *httpClient {
	client := retryablehttp.NewClient()
	client.Logger = nil
	// Hand back the last response when retries run out so its status can
	// be mapped to a sentinel instead of a generic give-up error.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.Retry.MaxAttempts > 0 {
		client.RetryMax = cfg.Retry.MaxAttempts - 1
	}
	if cfg.Retry.InitialDelay > 0 {
		client.RetryWaitMin = cfg.Retry.InitialDelay
	}
	if cfg.Retry.MaxDelay > 0 {
		client.RetryWaitMax = cfg.Retry.MaxDelay
	}

	return &httpClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.timeout(),
	}
}

// Lookup fetches the search page for the SKU and extracts product fields.
// Extraction is per-field tolerant: any selector that finds nothing leaves
// the corresponding field nil.
func (c *httpClient) Lookup(ctx context.Context, productKey string) (model.ProductDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	searchURL := fmt.Sprintf("%s/search?search-bar=%s", c.baseURL, url.QueryEscape(productKey))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return model.ProductDetails{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.ProductDetails{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return model.ProductDetails{}, fmt.Errorf("%w: storefront throttled the search", common.ErrLookupRateLimit)
	}
	if resp.StatusCode != http.StatusOK {
		return model.ProductDetails{}, fmt.Errorf("%w: storefront returned %d", common.ErrLookupFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return model.ProductDetails{}, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	details := extractFromDocument(doc)
	if details.IsEmpty() {
		// Some storefronts hydrate tiles client-side but still embed the
		// search results as a JSON payload.
		details = extractFromPageData(doc)
	}

	return details, nil
}

// extractFromDocument pulls product fields out of the first rendered tile.
func extractFromDocument(doc *goquery.Document) model.ProductDetails {
	var details model.ProductDetails

	details.Brand = selectText(doc, selectorBrand)
	details.Name = selectText(doc, selectorName)
	details.Price = selectText(doc, selectorPrice)
	details.WasPrice = selectText(doc, selectorWasPrice)

	if href, ok := doc.Find(selectorTileLink).First().Attr("href"); ok {
		// Product pages end in the product number.
		parts := strings.Split(strings.TrimRight(href, "/"), "/")
		if number := parts[len(parts)-1]; number != "" {
			details.ProductNumber = &number
		}
	}

	if src, ok := doc.Find(selectorTileImage).First().Attr("src"); ok {
		src = strings.TrimSpace(src)
		if src != "" {
			details.ImageURL = &src
		}
	}

	return details
}

// extractFromPageData reads the first search hit from the page's embedded
// JSON payload.
func extractFromPageData(doc *goquery.Document) model.ProductDetails {
	var details model.ProductDetails

	payload := doc.Find(selectorPageData).First().Text()
	if payload == "" {
		return details
	}

	product := gjson.Get(payload, "props.pageProps.searchResults.products.0")
	if !product.Exists() {
		return details
	}

	details.Brand = jsonField(product, "brand")
	details.Name = jsonField(product, "name")
	details.Price = jsonField(product, "prices.price.value")
	details.WasPrice = jsonField(product, "prices.wasPrice.value")
	details.ProductNumber = jsonField(product, "productId")
	details.ImageURL = jsonField(product, "imageAssets.0.smallUrl")

	return details
}

func selectText(doc *goquery.Document, selector string) *string {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" {
		return nil
	}
	return &text
}

func jsonField(result gjson.Result, path string) *string {
	value := result.Get(path)
	if !value.Exists() {
		return nil
	}
	text := strings.TrimSpace(value.String())
	if text == "" {
		return nil
	}
	return &text
}
