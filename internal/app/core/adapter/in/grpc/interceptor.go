package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryLogger 記錄每個 RPC 的結果與耗時，並把 panic 轉成 Internal
func UnaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("rpc panic", zap.String("method", info.FullMethod), zap.Any("panic", r), zap.Stack("stack"))
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.Stringer("code", code),
				zap.Duration("elapsed", time.Since(start)),
			}
			switch code {
			case codes.OK:
				logger.Debug("rpc", fields...)
			case codes.Internal, codes.Unknown:
				logger.Error("rpc", append(fields, zap.Error(err))...)
			default:
				logger.Info("rpc", append(fields, zap.Error(err))...)
			}
		}()
		return handler(ctx, req)
	}
}
