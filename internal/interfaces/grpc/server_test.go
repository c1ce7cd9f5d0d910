package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/molgraph/internal/application/structure"
	"github.com/turtacn/molgraph/internal/config"
	"github.com/turtacn/molgraph/internal/interfaces/grpc/services"
	"github.com/turtacn/molgraph/internal/testutil"
	"github.com/turtacn/molgraph/pkg/errors"
)

func startBufServer(t *testing.T) (*services.StructureClient, healthpb.HealthClient, *testutil.MockLogger) {
	t.Helper()
	logger := testutil.NewMockLogger()
	lis := bufconn.Listen(1 << 20)

	srv, err := NewServer(config.ServerConfig{}, WithListener(lis), WithLogger(logger), WithGracefulTimeout(time.Second))
	require.NoError(t, err)
	svc := structure.NewService(structure.Config{}, structure.Deps{})
	srv.RegisterService(&services.StructureServiceDesc, services.NewStructureServer(svc, logger))

	go func() { _ = srv.Start() }()
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return services.NewStructureClient(conn), healthpb.NewHealthClient(conn), logger
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func glyAla() map[string]interface{} {
	return map[string]interface{}{
		"title":  "fragment",
		"chains": []interface{}{map[string]interface{}{
			"id":       "A",
			"residues": []interface{}{
				map[string]interface{}{"id": "A1", "name": "GLY", "atoms": []interface{}{
					map[string]interface{}{"id": 1, "name": "N", "element": "N"},
					map[string]interface{}{"id": 2, "name": "CA", "element": "C", "x": 1.46},
				}},
				map[string]interface{}{"id": "A2", "name": "ALA", "atoms": []interface{}{
					map[string]interface{}{"id": 3, "name": "N", "element": "N", "x": 3.0},
				}},
			},
		}},
	}
}

func TestStructureService_RoundTrip(t *testing.T) {
	client, _, logger := startBufServer(t)
	ctx := context.Background()

	sum, err := client.Ingest(ctx, mustStruct(t, glyAla()))
	require.NoError(t, err)
	id := sum.GetFields()["id"].GetStringValue()
	require.NotEmpty(t, id)
	assert.Equal(t, float64(3), sum.GetFields()["atom_count"].GetNumberValue())

	got, err := client.GetSummary(ctx, mustStruct(t, map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, "GA", got.GetFields()["sequences"].GetStructValue().GetFields()["A"].GetStringValue())

	sel, err := client.Select(ctx, mustStruct(t, map[string]interface{}{"id": id, "expression": "element N"}))
	require.NoError(t, err)
	assert.Len(t, sel.GetFields()["atoms"].GetListValue().GetValues(), 2)

	exp, err := client.Export(ctx, mustStruct(t, map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.NotEmpty(t, exp.GetFields()["digest"].GetStringValue())

	var logged bool
	for _, m := range logger.GetMessages() {
		if m.Message == "grpc request" {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestStructureService_ErrorMapping(t *testing.T) {
	client, _, _ := startBufServer(t)
	ctx := context.Background()

	_, err := client.GetSummary(ctx, mustStruct(t, map[string]interface{}{"id": "not-an-id"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, errors.CodeInvalidParam, services.CodeFromStatus(err))

	missing := "7f1d8c8e-4f52-4a53-9a8e-3b0f2f5b6d11"
	_, err = client.GetSummary(ctx, mustStruct(t, map[string]interface{}{"id": missing}))
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, errors.ErrCodeModelNotFound, services.CodeFromStatus(err))

	sum, err := client.Ingest(ctx, mustStruct(t, glyAla()))
	require.NoError(t, err)
	_, err = client.Select(ctx, mustStruct(t, map[string]interface{}{
		"id": sum.GetFields()["id"].GetStringValue(), "expression": "name (",
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, errors.ErrCodeSelectionSyntax, services.CodeFromStatus(err))
}

func TestHealth(t *testing.T) {
	_, health, _ := startBufServer(t)
	resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: services.StructureServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	logger := testutil.NewMockLogger()
	interceptor := recoveryUnaryInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/molgraph.v1.StructureService/Select"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
	msgs := logger.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Level)
}

func TestLoggingUnaryInterceptor_SkipsHealthChecks(t *testing.T) {
	logger := testutil.NewMockLogger()
	interceptor := loggingUnaryInterceptor(logger)
	ok := func(context.Context, interface{}) (interface{}, error) { return "ok", nil }

	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)
	assert.Empty(t, logger.GetMessages())

	notFound := func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "gone")
	}
	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/molgraph.v1.StructureService/Export"}, notFound)
	msgs := logger.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "warn", msgs[0].Level)
	code, _ := msgs[0].Field("code")
	assert.Equal(t, "NotFound", code)
}

func TestMetricsUnaryInterceptor_NilMetrics(t *testing.T) {
	interceptor := metricsUnaryInterceptor(nil)
	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/s/M"},
		func(context.Context, interface{}) (interface{}, error) { return 1, nil })
	assert.NoError(t, err)
	assert.Equal(t, 1, resp)
}

func TestSplitMethodName(t *testing.T) {
	svc, m := splitMethodName("/molgraph.v1.StructureService/GetSummary")
	assert.Equal(t, "molgraph.v1.StructureService", svc)
	assert.Equal(t, "GetSummary", m)

	svc, m = splitMethodName("bare")
	assert.Equal(t, "unknown", svc)
	assert.Equal(t, "bare", m)
}

func TestServer_StopBeforeStart(t *testing.T) {
	srv, err := NewServer(config.ServerConfig{}, WithListener(bufconn.Listen(1024)))
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

//Personal.AI order the ending
