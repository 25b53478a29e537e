// Package models contains domain models for skinshelf.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is one entry of a visitor's skincare list.
// Products are never edited in place; delete and re-add is the only edit path.
type Product struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductDocument is a Product as mirrored in the document store.
type ProductDocument struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"timestamp"`
	Product
}

// ProductNames returns the names of products in list order.
func ProductNames(products []Product) []string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	return names
}

// JoinProductNames renders the names snapshot stored with a history entry.
func JoinProductNames(products []Product) string {
	return strings.Join(ProductNames(products), ", ")
}
