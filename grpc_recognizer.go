// grpc_recognizer.go: Recognition transport over gRPC with well-known protobuf types
//
// The service carries the image reference and the recognized text as
// google.protobuf.StringValue, so neither side needs generated stubs.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	recognizerServiceName = "selectocr.v1.Recognizer"
	recognizeMethod       = "/" + recognizerServiceName + "/Recognize"
)

// GRPCRecognizer calls the Recognize method of a remote selectocr.v1.Recognizer.
type GRPCRecognizer struct {
	endpoint string
	options  []grpc.DialOption
	conn     *grpc.ClientConn
	logger   Logger
	mu       sync.Mutex
}

// NewGRPCRecognizer creates a recognizer for endpoint. The connection is
// established lazily on the first call. Without options the connection is
// plaintext; transport security of the backend call is left to the caller.
func NewGRPCRecognizer(endpoint string, logger any, opts ...grpc.DialOption) (*GRPCRecognizer, error) {
	if endpoint == "" {
		return nil, NewMissingGRPCEndpointError()
	}
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCRecognizer{
		endpoint: endpoint,
		options:  opts,
		logger:   NewLogger(logger).With("recognizer", "grpc"),
	}, nil
}

// Recognize implements Recognizer.
func (g *GRPCRecognizer) Recognize(ctx context.Context, ref ImageReference) (string, error) {
	conn, err := g.connection()
	if err != nil {
		return "", err
	}

	out := new(wrapperspb.StringValue)
	if err := conn.Invoke(ctx, recognizeMethod, wrapperspb.String(ref.String()), out); err != nil {
		return "", g.handleGRPCError(err)
	}

	g.logger.Debug("gRPC recognition completed", "endpoint", g.endpoint, "bytes", len(out.GetValue()))
	return out.GetValue(), nil
}

func (g *GRPCRecognizer) connection() (*grpc.ClientConn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn != nil {
		return g.conn, nil
	}

	conn, err := grpc.NewClient(g.endpoint, g.options...)
	if err != nil {
		return nil, NewGRPCTransportError(g.endpoint, err)
	}
	g.conn = conn

	g.logger.Info("gRPC recognition connection created", "endpoint", g.endpoint)
	return conn, nil
}

func (g *GRPCRecognizer) handleGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return NewGRPCTransportError(g.endpoint, err)
	}
	return NewGRPCTransportError(g.endpoint, err).
		WithContext("grpc_code", st.Code().String())
}

// Close closes the underlying connection.
func (g *GRPCRecognizer) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conn == nil {
		return nil
	}
	err := g.conn.Close()
	g.conn = nil
	return err
}

// RegisterRecognizerServer exposes r as the selectocr.v1.Recognizer service on s.
func RegisterRecognizerServer(s grpc.ServiceRegistrar, r Recognizer) {
	s.RegisterService(&recognizerServiceDesc, r)
}

var recognizerServiceDesc = grpc.ServiceDesc{
	ServiceName: recognizerServiceName,
	HandlerType: (*Recognizer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Recognize",
			Handler:    recognizeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "selectocr/v1/recognizer.proto",
}

func recognizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		ref := ImageReference(req.(*wrapperspb.StringValue).GetValue())
		if ref.IsEmpty() {
			return nil, status.Error(codes.InvalidArgument, "empty image reference")
		}
		text, err := srv.(Recognizer).Recognize(ctx, ref)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return wrapperspb.String(text), nil
	}

	if interceptor == nil {
		return call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: recognizeMethod}
	return interceptor(ctx, in, info, call)
}
