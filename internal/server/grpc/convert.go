package grpc

import (
	"github.com/dmitrijs2005/posmart/internal/rpc"
	"github.com/dmitrijs2005/posmart/internal/server/models"
)

func productToWire(p *models.Product) rpc.Product {
	return rpc.Product{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		BuyPrice:    p.BuyPrice,
		SellPrice:   p.SellPrice,
		Quantity:    p.Quantity,
		MinStock:    p.MinStock,
		DateAdded:   p.DateAdded,
	}
}

func productFromWire(p rpc.Product) models.Product {
	return models.Product{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		BuyPrice:    p.BuyPrice,
		SellPrice:   p.SellPrice,
		Quantity:    p.Quantity,
		MinStock:    p.MinStock,
		DateAdded:   p.DateAdded,
	}
}

func saleToWire(s *models.Sale) rpc.Sale {
	return rpc.Sale{
		ID:         s.ID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		UnitPrice:  s.UnitPrice,
		TotalPrice: s.TotalPrice,
		Discount:   s.Discount,
		Tax:        s.Tax,
		SoldAt:     s.SoldAt,
		Oversold:   s.Oversold,
	}
}

func saleFromWire(s rpc.Sale) models.Sale {
	return models.Sale{
		ID:         s.ID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		UnitPrice:  s.UnitPrice,
		TotalPrice: s.TotalPrice,
		Discount:   s.Discount,
		Tax:        s.Tax,
		SoldAt:     s.SoldAt,
		Oversold:   s.Oversold,
	}
}
