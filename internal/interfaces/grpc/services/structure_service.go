// Package services holds the gRPC service implementations. Messages are
// google.protobuf.Struct documents carrying the same JSON shapes as the REST
// API, so no generated stubs are needed on either side.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/molgraph/internal/application/structure"
	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/pkg/errors"
	"github.com/turtacn/molgraph/pkg/types/common"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// StructureServiceName is the fully-qualified gRPC service name.
const StructureServiceName = "molgraph.v1.StructureService"

// ErrorDomain tags the ErrorInfo detail attached to failed calls.
const ErrorDomain = "molgraph"

// StructureServiceServer is the server API for StructureService.
type StructureServiceServer interface {
	Ingest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Export(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// StructureServer exposes the structure application service over gRPC.
type StructureServer struct {
	svc    structure.Service
	logger logging.Logger
}

func NewStructureServer(svc structure.Service, logger logging.Logger) *StructureServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StructureServer{svc: svc, logger: logger.Named("grpc.structure")}
}

// Ingest takes a model document and answers with its summary.
func (s *StructureServer) Ingest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var dto stypes.ModelDTO
	if err := FromStruct(req, &dto); err != nil {
		return nil, ToStatus(err)
	}
	sum, err := s.svc.Ingest(ctx, &dto)
	if err != nil {
		return nil, ToStatus(err)
	}
	return respond(sum)
}

// GetSummary takes {"id": "<model id>"}.
func (s *StructureServer) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, ToStatus(err)
	}
	sum, err := s.svc.Summary(ctx, id)
	if err != nil {
		return nil, ToStatus(err)
	}
	return respond(sum)
}

// Select takes {"id": ..., "expression": ...} and answers {"atoms": [...]}.
func (s *StructureServer) Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, ToStatus(err)
	}
	expr := req.GetFields()["expression"].GetStringValue()
	if expr == "" {
		expr = "all"
	}
	atoms, err := s.svc.Select(ctx, id, expr)
	if err != nil {
		return nil, ToStatus(err)
	}
	return respond(map[string]interface{}{"atoms": atoms})
}

// Export takes {"id": ...} and answers {"digest": ..., "model": {...}}.
func (s *StructureServer) Export(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req)
	if err != nil {
		return nil, ToStatus(err)
	}
	out, err := s.svc.Export(ctx, id)
	if err != nil {
		return nil, ToStatus(err)
	}
	return respond(out)
}

func requireID(req *structpb.Struct) (common.ID, error) {
	id := common.ID(req.GetFields()["id"].GetStringValue())
	if err := id.Validate(); err != nil {
		return "", errors.InvalidParam("invalid model id").WithDetail(string(id))
	}
	return id, nil
}

func respond(v interface{}) (*structpb.Struct, error) {
	out, err := ToStruct(v)
	if err != nil {
		return nil, ToStatus(err)
	}
	return out, nil
}

// ToStruct converts any JSON-encodable value whose encoding is an object.
func ToStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "encoding response")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "response is not an object")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "building struct")
	}
	return out, nil
}

// FromStruct decodes s into dst. Numbers reach dst as json.Number so
// untyped integer fields are still checked by the domain.
func FromStruct(s *structpb.Struct, dst interface{}) error {
	if s == nil {
		return errors.InvalidParam("request is empty")
	}
	raw, err := s.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "invalid request")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "invalid request").WithDetail(err.Error())
	}
	return nil
}

// ToStatus maps an application error onto a gRPC status. The error code
// travels as the ErrorInfo reason.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && !isAppError(err) {
		return err
	}
	code := errors.GetCode(err)
	if code == errors.CodeUnknown || code == errors.CodeOK {
		code = errors.CodeInternal
	}
	httpStatus := errors.HTTPStatusForCode(code)

	msg := errors.DefaultMessageForCode(code)
	var ae *errors.AppError
	if httpStatus < 500 && stderrors.As(err, &ae) {
		msg = ae.Message
	}
	st := status.New(grpcCode(httpStatus), msg)
	if withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: code.String(), Domain: ErrorDomain}); derr == nil {
		st = withInfo
	}
	return st.Err()
}

// CodeFromStatus recovers the application error code from a status error.
func CodeFromStatus(err error) errors.ErrorCode {
	st, ok := status.FromError(err)
	if !ok {
		return errors.CodeUnknown
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return errors.ErrorCode(info.GetReason())
		}
	}
	return errors.CodeUnknown
}

func isAppError(err error) bool {
	var ae *errors.AppError
	return stderrors.As(err, &ae)
}

func grpcCode(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.FailedPrecondition
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Service descriptor
// ─────────────────────────────────────────────────────────────────────────────

func unaryHandler(call func(StructureServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error), method string) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StructureServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + StructureServiceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StructureServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// StructureServiceDesc describes StructureService for grpc.Server.RegisterService.
var StructureServiceDesc = grpc.ServiceDesc{
	ServiceName: StructureServiceName,
	HandlerType: (*StructureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ingest", Handler: unaryHandler(StructureServiceServer.Ingest, "Ingest")},
		{MethodName: "GetSummary", Handler: unaryHandler(StructureServiceServer.GetSummary, "GetSummary")},
		{MethodName: "Select", Handler: unaryHandler(StructureServiceServer.Select, "Select")},
		{MethodName: "Export", Handler: unaryHandler(StructureServiceServer.Export, "Export")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "molgraph/v1/structure.proto",
}

// StructureClient is a thin client for StructureService.
type StructureClient struct {
	cc grpc.ClientConnInterface
}

func NewStructureClient(cc grpc.ClientConnInterface) *StructureClient {
	return &StructureClient{cc: cc}
}

func (c *StructureClient) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+StructureServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StructureClient) Ingest(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Ingest", req, opts...)
}

func (c *StructureClient) GetSummary(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSummary", req, opts...)
}

func (c *StructureClient) Select(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Select", req, opts...)
}

func (c *StructureClient) Export(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Export", req, opts...)
}

//Personal.AI order the ending
