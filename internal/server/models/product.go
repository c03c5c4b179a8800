// Package models defines the records persisted by the inventory server.
package models

import "time"

// Product is a catalog row. IDs are unique within a store.
type Product struct {
	StoreID     string    `db:"store_id"`
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Category    string    `db:"category"`
	Subcategory string    `db:"subcategory"`
	BuyPrice    float64   `db:"buy_price"`
	SellPrice   float64   `db:"sell_price"`
	Quantity    int64     `db:"quantity"`
	MinStock    int64     `db:"min_stock"`
	DateAdded   time.Time `db:"date_added"`
}
