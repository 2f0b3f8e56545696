// Package model defines the core domain models used throughout the application.
package model

// RawItem represents a single line item as scanned from a receipt.
// Descriptions are typically truncated and abbreviated by the point of
// sale ("PCO CREMINI 227"), and the price may still be a currency-formatted
// string.
type RawItem struct {
	ItemKey         string // store-assigned SKU, may be empty
	ItemDescription string
	Price           string
}

// ClassifiedItem is the result of classifying one RawItem. Nil pointer
// fields mean the value could not be determined; partial results are
// normal when the external lookup fails per-field.
type ClassifiedItem struct {
	Price         *float64 `json:"price,omitempty"`      // observed/scanned price
	ListPrice     *float64 `json:"list_price,omitempty"` // catalog/lookup reference price
	WasPrice      *float64 `json:"was_price,omitempty"`
	ImageURL      *string  `json:"image_url,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Name          string   `json:"name,omitempty"`
	ProductNumber string   `json:"product_number,omitempty"`
}
