package rpc

import "time"

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type ProductID struct {
	ID int64 `json:"id"`
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	BuyPrice    float64   `json:"buy_price"`
	SellPrice   float64   `json:"sell_price"`
	Quantity    int64     `json:"quantity"`
	MinStock    int64     `json:"min_stock"`
	DateAdded   time.Time `json:"date_added"`
}

type ProductList struct {
	Products []Product `json:"products"`
}

type Sale struct {
	ID         string    `json:"id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int64     `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	Discount   float64   `json:"discount"`
	Tax        float64   `json:"tax"`
	SoldAt     time.Time `json:"sold_at"`
	Oversold   bool      `json:"oversold"`
}

type CreateSaleRequest struct {
	Sale Sale `json:"sale"`
	// AllowOversell accepts the sale even if stock goes negative. It is set
	// for sales replayed from the offline queue.
	AllowOversell bool `json:"allow_oversell"`
}

type CreateSaleResponse struct {
	Sale Sale `json:"sale"`
	// Duplicate is true when the sale id was already recorded and nothing
	// changed.
	Duplicate bool `json:"duplicate"`
}

type SaleList struct {
	Sales []Sale `json:"sales"`
}
