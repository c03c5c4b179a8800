package grpc

import (
	"context"

	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/rpc"
	"github.com/dmitrijs2005/posmart/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const StoreIDKey ctxKey = "storeID"

// public methods do not require a token
var public = map[string]bool{
	rpc.MethodPing: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if public[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	storeID, err := auth.GetStoreIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(context.WithValue(ctx, StoreIDKey, storeID), req)
}

func storeIDFrom(ctx context.Context) (string, error) {
	storeID, ok := ctx.Value(StoreIDKey).(string)
	if !ok || storeID == "" {
		return "", status.Error(codes.Unauthenticated, "missing store")
	}
	return storeID, nil
}
