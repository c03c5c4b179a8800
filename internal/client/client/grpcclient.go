package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	accessToken string
	conn        *grpc.ClientConn
	cc          grpc.ClientConnInterface
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewInventoryClient prepares a client for endpointURL. The connection is
// established lazily on the first call. Extra dial options are appended
// after the defaults (insecure transport, token interceptor).
func NewInventoryClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.cc = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	in, err := rpc.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := s.cc.Invoke(ctx, method, in, out); err != nil {
		return s.mapError(err)
	}
	if resp == nil {
		return nil
	}
	return rpc.Decode(out, resp)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp rpc.PingResponse
	if err := s.call(ctx, rpc.MethodPing, rpc.Empty{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var resp rpc.ProductList
	if err := s.call(ctx, rpc.MethodListProducts, rpc.Empty{}, &resp); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, productFromWire(p))
	}
	return products, nil
}

func (s *GRPCClient) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var resp rpc.Product
	if err := s.call(ctx, rpc.MethodGetProduct, rpc.ProductID{ID: id}, &resp); err != nil {
		return nil, err
	}
	p := productFromWire(resp)
	return &p, nil
}

func (s *GRPCClient) AddProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	var resp rpc.Product
	if err := s.call(ctx, rpc.MethodAddProduct, productToWire(p), &resp); err != nil {
		return nil, err
	}
	out := productFromWire(resp)
	return &out, nil
}

func (s *GRPCClient) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	var resp rpc.Product
	if err := s.call(ctx, rpc.MethodUpdateProduct, productToWire(p), &resp); err != nil {
		return nil, err
	}
	out := productFromWire(resp)
	return &out, nil
}

func (s *GRPCClient) DeleteProduct(ctx context.Context, id int64) error {
	return s.call(ctx, rpc.MethodDeleteProduct, rpc.ProductID{ID: id}, nil)
}

func (s *GRPCClient) CreateSale(ctx context.Context, sale models.Sale, allowOversell bool) (*models.Sale, error) {
	req := rpc.CreateSaleRequest{Sale: saleToWire(sale), AllowOversell: allowOversell}
	var resp rpc.CreateSaleResponse
	if err := s.call(ctx, rpc.MethodCreateSale, req, &resp); err != nil {
		return nil, err
	}
	out := saleFromWire(resp.Sale)
	return &out, nil
}

func (s *GRPCClient) ListSales(ctx context.Context) ([]models.Sale, error) {
	var resp rpc.SaleList
	if err := s.call(ctx, rpc.MethodListSales, rpc.Empty{}, &resp); err != nil {
		return nil, err
	}
	sales := make([]models.Sale, 0, len(resp.Sales))
	for _, sale := range resp.Sales {
		sales = append(sales, saleFromWire(sale))
	}
	return sales, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %w: %s", ErrRejected, common.ErrInsufficientStock, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
