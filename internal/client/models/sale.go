package models

import "time"

// Sale records units of one product sold at one moment.
type Sale struct {
	// ID is a UUID so that a sale keeps its identity across redelivery.
	ID        string  `json:"id"`
	ProductID int64   `json:"productId"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`

	// TotalPrice is UnitPrice*Quantity - Discount + Tax.
	TotalPrice float64 `json:"totalPrice"`
	Discount   float64 `json:"discount"`
	Tax        float64 `json:"tax"`

	DateTime time.Time `json:"dateTime"`

	// Oversold is set when the sale drove stock below zero.
	Oversold bool `json:"oversold,omitempty"`
}

// SaleTotal computes the amount charged for a sale.
func SaleTotal(unitPrice float64, quantity int64, discount, tax float64) float64 {
	return unitPrice*float64(quantity) - discount + tax
}
