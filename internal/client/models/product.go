// Package models defines client-side data models used by the posmart CLI.
package models

import "time"

// Product is a catalog item with its current stock level.
type Product struct {
	// ID is unique within the local catalog; new products get max(ID)+1.
	ID int64 `json:"id"`

	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`

	// BuyPrice and SellPrice are per unit.
	BuyPrice  float64 `json:"buyPrice"`
	SellPrice float64 `json:"sellPrice"`

	// Quantity may drop below zero after sales recorded offline.
	Quantity int64 `json:"quantity"`

	// MinStock is the low-stock threshold (inclusive).
	MinStock int64 `json:"minStock"`

	DateAdded time.Time `json:"dateAdded"`
}

// IsLowStock reports whether the stock level is at or below MinStock.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// ProfitPerUnit is SellPrice minus BuyPrice; negative values are a loss.
func (p Product) ProfitPerUnit() float64 {
	return p.SellPrice - p.BuyPrice
}
