package interceptors

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestIdentityUnary(t *testing.T) {
	tests := []struct {
		name        string
		md          metadata.MD
		wantUser    string
		wantRequest string
	}{
		{"both set", metadata.Pairs(UserIDHeader, " user-1 ", RequestIDHeader, "req-1"), "user-1", "req-1"},
		{"user only", metadata.Pairs(UserIDHeader, "user-2"), "user-2", ""},
		{"no metadata", nil, "", ""},
	}
	interceptor := IdentityUnary()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}
			var gotUser, gotRequest string
			_, err := interceptor(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/svc/M"}, func(ctx context.Context, req interface{}) (interface{}, error) {
				gotUser, _ = GetUserID(ctx)
				gotRequest, _ = GetRequestID(ctx)
				return "ok", nil
			})
			if err != nil {
				t.Fatalf("interceptor: %v", err)
			}
			if gotUser != tt.wantUser {
				t.Errorf("user = %q, want %q", gotUser, tt.wantUser)
			}
			if tt.wantRequest != "" && gotRequest != tt.wantRequest {
				t.Errorf("request = %q, want %q", gotRequest, tt.wantRequest)
			}
			if gotRequest == "" {
				t.Error("request id should be generated when missing")
			}
		})
	}
}
