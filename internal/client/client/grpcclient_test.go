package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/models"
	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeInventory struct {
	rpc.UnimplementedInventoryServer

	lastToken string
	lastSale  rpc.CreateSaleRequest
	saleErr   error
}

func tokenFrom(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f *fakeInventory) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	f.lastToken = tokenFrom(ctx)
	return rpc.Encode(rpc.PingResponse{Status: "OK"})
}

func (f *fakeInventory) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Encode(rpc.ProductList{Products: []rpc.Product{
		{ID: 1, Name: "Rice (1kg)", SellPrice: 150, BuyPrice: 100, Quantity: 20, MinStock: 5},
		{ID: 2, Name: "Milk (1L)", SellPrice: 180, BuyPrice: 120, Quantity: 3, MinStock: 10},
	}})
}

func (f *fakeInventory) GetProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.ProductID
	if err := rpc.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.ID != 1 {
		return nil, status.Error(codes.NotFound, "no such product")
	}
	return rpc.Encode(rpc.Product{ID: 1, Name: "Rice (1kg)"})
}

func (f *fakeInventory) CreateSale(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.lastToken = tokenFrom(ctx)
	if err := rpc.Decode(in, &f.lastSale); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if f.saleErr != nil {
		return nil, f.saleErr
	}
	out := f.lastSale.Sale
	out.Oversold = f.lastSale.AllowOversell
	return rpc.Encode(rpc.CreateSaleResponse{Sale: out})
}

func (f *fakeInventory) DeleteProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Encode(rpc.Empty{})
}

func newBufClient(t *testing.T, srv rpc.InventoryServer, token string) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	rpc.RegisterInventoryServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := NewInventoryClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_PingSendsToken(t *testing.T) {
	srv := &fakeInventory{}
	c := newBufClient(t, srv, "tok-123")

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "tok-123", srv.lastToken)
}

func TestGRPCClient_ListAndGetProducts(t *testing.T) {
	c := newBufClient(t, &fakeInventory{}, "")
	ctx := context.Background()

	products, err := c.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Milk (1L)", products[1].Name)
	assert.True(t, products[1].IsLowStock())

	p, err := c.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	_, err = c.GetProduct(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.DeleteProduct(ctx, 1))
}

func TestGRPCClient_CreateSale(t *testing.T) {
	srv := &fakeInventory{}
	c := newBufClient(t, srv, "tok")
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	out, err := c.CreateSale(context.Background(), models.Sale{
		ID: "s-1", ProductID: 1, Quantity: 2, UnitPrice: 150, TotalPrice: 300, DateTime: when,
	}, true)
	require.NoError(t, err)

	assert.True(t, srv.lastSale.AllowOversell)
	assert.Equal(t, "s-1", srv.lastSale.Sale.ID)
	assert.True(t, srv.lastSale.Sale.SoldAt.Equal(when))
	assert.True(t, out.Oversold)
	assert.Equal(t, int64(2), out.Quantity)
}

func TestGRPCClient_CreateSaleRejected(t *testing.T) {
	srv := &fakeInventory{saleErr: status.Error(codes.FailedPrecondition, "insufficient stock")}
	c := newBufClient(t, srv, "")

	_, err := c.CreateSale(context.Background(), models.Sale{ID: "s-1", ProductID: 1, Quantity: 50}, false)
	require.ErrorIs(t, err, ErrRejected)
	require.ErrorIs(t, err, common.ErrInsufficientStock)
	assert.False(t, IsRetryable(err))
}

func TestGRPCClient_UnimplementedIsWrapped(t *testing.T) {
	c := newBufClient(t, &fakeInventory{}, "")
	_, err := c.ListSales(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc error")
}

func TestGRPCClient_UnreachableIsRetryable(t *testing.T) {
	c, err := NewInventoryClient("passthrough:///nowhere", "",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		}))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = c.Ping(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsRetryable(err))
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{"permission", status.Error(codes.PermissionDenied, "x"), ErrUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
		{"not found", status.Error(codes.NotFound, "x"), ErrNotFound},
		{"precondition", status.Error(codes.FailedPrecondition, "x"), ErrRejected},
		{"invalid", status.Error(codes.InvalidArgument, "x"), ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, c.mapError(tt.in), tt.want)
		})
	}

	assert.NoError(t, c.mapError(nil))
	err := c.mapError(status.Error(codes.Internal, "boom"))
	assert.Contains(t, err.Error(), "rpc error")
}

func TestWithAccessToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.NewOutgoingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "old", "x-other", "1"))
	ctx = withAccessToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, md.Get(common.AccessTokenHeaderName))
	assert.Equal(t, []string{"1"}, md.Get("x-other"))
}
