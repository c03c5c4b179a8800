package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/client"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

func TestRun_ServesPingUntilCanceled(t *testing.T) {
	addr := freeAddr(t)
	srv := NewGRPCServer(addr, logging.NewNop(), newFakeInventory(), "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	remote, err := client.NewInventoryClient(addr, "")
	require.NoError(t, err)
	defer remote.Close()

	require.Eventually(t, func() bool {
		pctx, pcancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer pcancel()
		return remote.Ping(pctx) == nil
	}, 3*time.Second, 50*time.Millisecond, "ping never succeeded")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.NewNop(), newFakeInventory(), "secret")
	require.Error(t, srv.Run(context.Background()))
}
