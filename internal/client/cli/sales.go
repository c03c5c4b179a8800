package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/models"
)

func formatSale(s models.Sale) string {
	line := fmt.Sprintf("%s  product=%d qty=%d total=%.2f", s.DateTime.Local().Format(time.DateTime), s.ProductID, s.Quantity, s.TotalPrice)
	if s.Oversold {
		line += "  OVERSOLD"
	}
	return line
}

func (a *App) Sell(ctx context.Context) error {
	productID, err := GetInt(a.reader, "Product ID", 0, a.out)
	if err != nil {
		return err
	}
	qty, err := GetInt(a.reader, "Quantity [1]", 1, a.out)
	if err != nil {
		return err
	}
	discount, err := GetFloat(a.reader, "Discount [0]", 0, a.out)
	if err != nil {
		return err
	}
	tax, err := GetFloat(a.reader, "Tax [0]", 0, a.out)
	if err != nil {
		return err
	}

	sale, err := a.inventory.RecordSale(ctx, productID, qty, discount, tax)
	if err != nil {
		return err
	}

	printlnFn("Sale recorded:", formatSale(*sale))
	if !a.monitor.IsOnline() {
		printlnFn("Offline: the sale will be sent when the connection is back")
	}
	return nil
}

func (a *App) Sales(ctx context.Context) error {
	items, err := a.inventory.GetSales(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printlnFn("No sales")
		return nil
	}
	for _, s := range items {
		printlnFn(formatSale(s))
	}
	return nil
}

func (a *App) Summary(ctx context.Context) error {
	sum, err := a.inventory.Summary(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Units in stock: %d", sum.UnitsInStock))
	printlnFn(fmt.Sprintf("Units sold:     %d", sum.UnitsSold))
	printlnFn(fmt.Sprintf("Revenue:        %.2f", sum.Revenue))
	printlnFn(fmt.Sprintf("Profit:         %.2f", sum.Profit))
	printlnFn(fmt.Sprintf("Loss:           %.2f", sum.Loss))
	printlnFn(fmt.Sprintf("Net:            %.2f", sum.NetProfit()))
	printlnFn(fmt.Sprintf("Low stock:      %d products", len(sum.LowStock)))
	return nil
}
