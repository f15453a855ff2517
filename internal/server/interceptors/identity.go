package interceptors

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Metadata keys read by IdentityUnary. The REST gateway uses the same names as HTTP headers.
const (
	UserIDHeader    = "x-user-id"
	RequestIDHeader = "x-request-id"
)

// IdentityUnary returns a unary server interceptor that reads the caller's user id and request id
// from metadata and stores them in context. A missing request id is generated and echoed back as a header.
// The user id is informational; there is no authentication.
func IdentityUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		userID := firstMetadata(ctx, UserIDHeader)
		requestID := firstMetadata(ctx, RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))
		return handler(WithIdentity(ctx, userID, requestID), req)
	}
}

// firstMetadata returns the first trimmed value for key, or "".
func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
