// Package rpc exposes capture and OCR over gRPC. Messages are protobuf
// well-known types so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/GriffinCanCode/snapocr/internal/ocr"
)

const (
	ServiceName = "snapocr.v1.SnapOCR"

	// LanguageKey carries the optional OCR language hint in request metadata.
	LanguageKey = "x-ocr-language"

	// MaxMessageBytes admits the largest image HTTP accepts plus the
	// BytesValue envelope. grpc's own default is 4 MiB.
	MaxMessageBytes = ocr.MaxImageBytes + 1<<10
)

// Full method names
const (
	RecognizeMethod     = "/" + ServiceName + "/Recognize"
	CaptureMethod       = "/" + ServiceName + "/Capture"
	LastCapturesMethod  = "/" + ServiceName + "/LastCaptures"
	ClearCapturesMethod = "/" + ServiceName + "/ClearCaptures"
)

// SnapOCRServer is the server API for the SnapOCR service.
type SnapOCRServer interface {
	Recognize(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	Capture(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	LastCaptures(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ClearCaptures(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// ServiceDesc describes the SnapOCR service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SnapOCRServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(RecognizeMethod, "Recognize", func(s SnapOCRServer, ctx context.Context, in *wrapperspb.BytesValue) (any, error) {
			return s.Recognize(ctx, in)
		}),
		unary(CaptureMethod, "Capture", func(s SnapOCRServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Capture(ctx, in)
		}),
		unary(LastCapturesMethod, "LastCaptures", func(s SnapOCRServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.LastCaptures(ctx, in)
		}),
		unary(ClearCapturesMethod, "ClearCaptures", func(s SnapOCRServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.ClearCaptures(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "snapocr/v1/snapocr.proto",
}

// unary builds a method descriptor that decodes a *Req and runs call through
// the server's interceptor chain.
func unary[Req any](fullMethod, name string, call func(SnapOCRServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SnapOCRServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(SnapOCRServer), ctx, req.(*Req))
			})
		},
	}
}
