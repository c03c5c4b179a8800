package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/posmart/internal/client/models"
)

func formatProduct(p models.Product) string {
	s := fmt.Sprintf("%4d  %-24s %-12s qty=%-5d buy=%.2f sell=%.2f", p.ID, p.Name, p.Category, p.Quantity, p.BuyPrice, p.SellPrice)
	if p.IsLowStock() {
		s += "  LOW"
	}
	return s
}

func (a *App) Products(ctx context.Context) error {
	items, err := a.inventory.GetProducts(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("No products")
		return nil
	}
	for _, p := range items {
		printlnFn(formatProduct(p))
	}
	return nil
}

func (a *App) AddProduct(ctx context.Context) error {
	var (
		p   models.Product
		err error
	)

	if p.Name, err = GetSimpleText(a.reader, "Name", a.out); err != nil {
		return err
	}
	if p.Category, err = GetSimpleText(a.reader, "Category", a.out); err != nil {
		return err
	}
	if p.Subcategory, err = GetSimpleText(a.reader, "Subcategory", a.out); err != nil {
		return err
	}
	if p.BuyPrice, err = GetFloat(a.reader, "Buy price", 0, a.out); err != nil {
		return err
	}
	if p.SellPrice, err = GetFloat(a.reader, "Sell price", 0, a.out); err != nil {
		return err
	}
	if p.Quantity, err = GetInt(a.reader, "Quantity", 0, a.out); err != nil {
		return err
	}
	if p.MinStock, err = GetInt(a.reader, "Minimum stock [5]", 5, a.out); err != nil {
		return err
	}

	added, err := a.inventory.AddProduct(ctx, p)
	if err != nil {
		return err
	}
	printlnFn("Product added:", formatProduct(*added))
	return nil
}

func (a *App) DeleteProduct(ctx context.Context) error {
	id, err := GetInt(a.reader, "Product ID", 0, a.out)
	if err != nil {
		return err
	}
	if err := a.inventory.DeleteProduct(ctx, id); err != nil {
		return err
	}
	printlnFn("Product deleted")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	items, err := a.inventory.RefreshProducts(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%d products in catalog", len(items)))
	return nil
}

func (a *App) LowStock(ctx context.Context) error {
	items, err := a.inventory.LowStock(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("All products are sufficiently stocked")
		return nil
	}
	for _, p := range items {
		printlnFn(formatProduct(p))
	}
	return nil
}
