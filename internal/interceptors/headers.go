package interceptors

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// secretHeaders never reach the log in clear text.
var secretHeaders = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"cookie":        true,
}

type LogHeadersInterceptor struct {
	logger *slog.Logger
}

func NewLogHeadersInterceptor(logger *slog.Logger) *LogHeadersInterceptor {
	return &LogHeadersInterceptor{logger: logger}
}

func (i *LogHeadersInterceptor) LogHeadersUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			for key, values := range md {
				for _, value := range values {
					if secretHeaders[key] {
						value = Mask(value)
					}
					i.logger.Debug("Header",
						slog.String("method", info.FullMethod),
						slog.String("key", key),
						slog.String("value", value),
					)
				}
			}
		}

		return handler(ctx, req)
	}
}

// Mask keeps the first and last character of long secrets.
func Mask(v string) string {
	if len(v) > 4 {
		return v[:1] + "****" + v[len(v)-1:]
	}
	return "****"
}
