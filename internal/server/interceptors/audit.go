package interceptors

import (
	"context"
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"sleeptracker/backend/internal/audit"
)

// AuditUnary returns a unary server interceptor that records an audit entry after each RPC.
// skipMethods is the set of full method names to not audit (health, ListAuditLogs, and the write
// RPCs whose services already audit themselves). The entry carries the resulting status code.
// If auditor is nil, the interceptor no-ops.
func AuditUnary(auditor audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if auditor == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		userID, _ := GetUserID(ctx)
		ar := audit.ParseFullMethod(info.FullMethod)
		auditor.LogEvent(ctx, audit.Event{
			UserID:   userID,
			Action:   ar.Action,
			Resource: ar.Resource,
			Metadata: fmt.Sprintf(`{"status":%q}`, status.Code(err).String()),
		})
		return resp, err
	}
}

// ClientIP returns the client IP set by WithClientIP, else from gRPC metadata (x-forwarded-for, x-real-ip)
// or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
