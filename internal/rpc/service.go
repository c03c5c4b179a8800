// Package rpc describes the posmart.v1.Inventory gRPC service. Requests and
// responses travel as google.protobuf.Struct values; Encode and Decode move
// between those and the plain Go types declared in types.go.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "posmart.v1.Inventory"

const (
	MethodPing          = "/" + ServiceName + "/Ping"
	MethodListProducts  = "/" + ServiceName + "/ListProducts"
	MethodGetProduct    = "/" + ServiceName + "/GetProduct"
	MethodAddProduct    = "/" + ServiceName + "/AddProduct"
	MethodUpdateProduct = "/" + ServiceName + "/UpdateProduct"
	MethodDeleteProduct = "/" + ServiceName + "/DeleteProduct"
	MethodCreateSale    = "/" + ServiceName + "/CreateSale"
	MethodListSales     = "/" + ServiceName + "/ListSales"
)

// InventoryServer is implemented by the server side of the service.
type InventoryServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSales(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(InventoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", InventoryServer.Ping),
		unary("ListProducts", InventoryServer.ListProducts),
		unary("GetProduct", InventoryServer.GetProduct),
		unary("AddProduct", InventoryServer.AddProduct),
		unary("UpdateProduct", InventoryServer.UpdateProduct),
		unary("DeleteProduct", InventoryServer.DeleteProduct),
		unary("CreateSale", InventoryServer.CreateSale),
		unary("ListSales", InventoryServer.ListSales),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "posmart/v1/inventory.proto",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// UnimplementedInventoryServer answers every method with codes.Unimplemented.
// Embed it to implement only part of the service.
type UnimplementedInventoryServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedInventoryServer) Ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Ping")
}
func (UnimplementedInventoryServer) ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ListProducts")
}
func (UnimplementedInventoryServer) GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetProduct")
}
func (UnimplementedInventoryServer) AddProduct(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("AddProduct")
}
func (UnimplementedInventoryServer) UpdateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("UpdateProduct")
}
func (UnimplementedInventoryServer) DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("DeleteProduct")
}
func (UnimplementedInventoryServer) CreateSale(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("CreateSale")
}
func (UnimplementedInventoryServer) ListSales(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ListSales")
}
