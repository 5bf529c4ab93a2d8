package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

func TestUnaryErrorInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/tableorder.v1.Orders/Get"}
	call := func(err error) error {
		_, out := UnaryErrorInterceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, err
		})
		return out
	}

	assert.NoError(t, call(nil))
	assert.Equal(t, codes.NotFound, status.Code(call(errorbank.NotFound("order not found"))))
	assert.Equal(t, codes.PermissionDenied, status.Code(call(errorbank.Forbidden("nope"))))
	assert.Equal(t, codes.Internal, status.Code(call(errors.New("boom"))))
	assert.Equal(t, codes.Aborted, status.Code(call(status.Error(codes.Aborted, "kept"))))
}

func TestNewServerRegistersHealth(t *testing.T) {
	cfg := config.Config{Observability: config.Observability{ServiceName: "tableorder"}}
	server, healthSrv := NewServer(cfg, zap.NewNop())
	defer server.Stop()

	_, ok := server.GetServiceInfo()[healthpb.Health_ServiceDesc.ServiceName]
	assert.True(t, ok)

	resp, err := healthSrv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "tableorder"})
	assert.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
