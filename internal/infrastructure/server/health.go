package server

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckProcedure = "/grpc.health.v1.Health/Check"

// newHealthHandler exposes the gRPC health check on the HTTP port using the
// Connect protocol, so load balancers and browsers can probe it over h2c or
// plain HTTP/1.1.
func newHealthHandler(hs *health.Server) (string, http.Handler) {
	return healthCheckProcedure, connect.NewUnaryHandler(
		healthCheckProcedure,
		func(ctx context.Context, req *connect.Request[healthpb.HealthCheckRequest]) (*connect.Response[healthpb.HealthCheckResponse], error) {
			resp, err := hs.Check(ctx, req.Msg)
			if err != nil {
				return nil, connect.NewError(connect.CodeNotFound, err)
			}
			return connect.NewResponse(resp), nil
		},
	)
}
