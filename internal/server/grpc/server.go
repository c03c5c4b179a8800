// Package grpc exposes the inventory service over gRPC as posmart.v1.Inventory.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/dmitrijs2005/posmart/internal/rpc"
	"github.com/dmitrijs2005/posmart/internal/server/models"
	"google.golang.org/grpc"
)

// InventoryService is the use-case layer behind the handlers.
type InventoryService interface {
	ListProducts(ctx context.Context, storeID string) ([]*models.Product, error)
	GetProduct(ctx context.Context, storeID string, id int64) (*models.Product, error)
	AddProduct(ctx context.Context, storeID string, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, storeID string, p models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, storeID string, id int64) error
	CreateSale(ctx context.Context, storeID string, s models.Sale, allowOversell bool) (*models.Sale, bool, error)
	ListSales(ctx context.Context, storeID string) ([]*models.Sale, error)
}

type GRPCServer struct {
	address   string
	inventory InventoryService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, inventory InventoryService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		inventory: inventory,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer builds a grpc.Server with the interceptors installed and the
// inventory service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(s.accessTokenInterceptor)}, opts...)
	srv := grpc.NewServer(opts...)
	rpc.RegisterInventoryServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
