package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/rpc"
	"github.com/dmitrijs2005/posmart/internal/server/repositories/products"
	"github.com/dmitrijs2005/posmart/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ rpc.InventoryServer = (*GRPCServer)(nil)

// mapError converts service errors into gRPC statuses understood by the
// client.
func (s *GRPCServer) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrInvalidQuantity),
		errors.Is(err, common.ErrInvalidProduct),
		errors.Is(err, services.ErrInvalidSale):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, products.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func decode(in *structpb.Struct, v any) error {
	if err := rpc.Decode(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encode(rpc.PingResponse{Status: "OK"})
}

func (s *GRPCServer) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.inventory.ListProducts(ctx, storeID)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	resp := rpc.ProductList{Products: make([]rpc.Product, 0, len(items))}
	for _, p := range items {
		resp.Products = append(resp.Products, productToWire(p))
	}
	return encode(resp)
}

func (s *GRPCServer) GetProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req rpc.ProductID
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	p, err := s.inventory.GetProduct(ctx, storeID, req.ID)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return encode(productToWire(p))
}

func (s *GRPCServer) AddProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req rpc.Product
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	p, err := s.inventory.AddProduct(ctx, storeID, productFromWire(req))
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	s.logger.Info(ctx, "product added", "store", storeID, "id", p.ID)
	return encode(productToWire(p))
}

func (s *GRPCServer) UpdateProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req rpc.Product
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	p, err := s.inventory.UpdateProduct(ctx, storeID, productFromWire(req))
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return encode(productToWire(p))
}

func (s *GRPCServer) DeleteProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req rpc.ProductID
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	if err := s.inventory.DeleteProduct(ctx, storeID, req.ID); err != nil {
		return nil, s.mapError(ctx, err)
	}
	return encode(rpc.Empty{})
}

func (s *GRPCServer) CreateSale(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req rpc.CreateSaleRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	sale, duplicate, err := s.inventory.CreateSale(ctx, storeID, saleFromWire(req.Sale), req.AllowOversell)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	s.logger.Info(ctx, "sale recorded", "store", storeID, "sale", sale.ID,
		"duplicate", duplicate, "oversold", sale.Oversold)
	return encode(rpc.CreateSaleResponse{Sale: saleToWire(sale), Duplicate: duplicate})
}

func (s *GRPCServer) ListSales(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := storeIDFrom(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.inventory.ListSales(ctx, storeID)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	resp := rpc.SaleList{Sales: make([]rpc.Sale, 0, len(items))}
	for _, sale := range items {
		resp.Sales = append(resp.Sales, saleToWire(sale))
	}
	return encode(resp)
}
