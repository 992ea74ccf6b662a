package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on both the REST and RPC surfaces.
const RequestIDHeader = "X-Request-ID"

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// RPCs are served outside gin, so it also assigns the request id: a caller's
// X-Request-ID is reused, otherwise a fresh one is generated, and the id is
// echoed back in the response headers or error metadata.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			requestID := req.Header().Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"protocol", req.Peer().Protocol,
				"request_id", requestID,
				"peer", req.Peer().Addr,
			}

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			if err != nil {
				var connectErr *connect.Error
				if !errors.As(err, &connectErr) {
					connectErr = connect.NewError(connect.CodeUnknown, err)
					err = connectErr
				}
				connectErr.Meta().Set(RequestIDHeader, requestID)
				if connectErr.Code() == connect.CodeInternal || connectErr.Code() == connect.CodeUnknown {
					slog.Error("RPC failed", append(attrs, "error", err)...)
				} else {
					slog.Warn("RPC rejected", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
				}
				return nil, err
			}

			resp.Header().Set(RequestIDHeader, requestID)
			slog.Info("RPC ok", attrs...)
			return resp, nil
		}
	}
}
