package model

// CatalogProduct is one canonical product record. ProductNumber is the
// unique key within the catalog; the catalog itself is an insertion-ordered
// sequence, appended to and never mutated.
type CatalogProduct struct {
	Price         *float64 `json:"price,omitempty"`
	WasPrice      *float64 `json:"was_price,omitempty"`
	ImageURL      *string  `json:"image_url,omitempty"`
	ProductNumber string   `json:"product_number"`
	Brand         string   `json:"brand,omitempty"`
	Name          string   `json:"name,omitempty"`
}

// ProductDetails is the result of an external storefront lookup. Every
// field is independently optional: scrape failures are per-field, not
// all-or-nothing, so callers must handle any subset being nil.
type ProductDetails struct {
	Brand         *string `json:"brand,omitempty"`
	Name          *string `json:"name,omitempty"`
	Price         *string `json:"price,omitempty"` // raw currency text, e.g. "$1.99"
	WasPrice      *string `json:"was_price,omitempty"`
	ProductNumber *string `json:"product_number,omitempty"`
	ImageURL      *string `json:"image_url,omitempty"`
}

// IsEmpty reports whether no field of the lookup result was resolved.
func (d ProductDetails) IsEmpty() bool {
	return d.Brand == nil && d.Name == nil && d.Price == nil &&
		d.WasPrice == nil && d.ProductNumber == nil && d.ImageURL == nil
}
