package models

import "time"

type Sale struct {
	ID         string    `db:"id"`
	StoreID    string    `db:"store_id"`
	ProductID  int64     `db:"product_id"`
	Quantity   int64     `db:"quantity"`
	UnitPrice  float64   `db:"unit_price"`
	TotalPrice float64   `db:"total_price"`
	Discount   float64   `db:"discount"`
	Tax        float64   `db:"tax"`
	SoldAt     time.Time `db:"sold_at"`
	Oversold   bool      `db:"oversold"`
}
