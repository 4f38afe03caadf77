package rpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/screen"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// Session is the capture/OCR core served over gRPC.
type Session interface {
	Capture(ctx context.Context) (screen.CaptureSet, error)
	Last() (screen.CaptureSet, error)
	Cancel()
	Recognize(ctx context.Context, image []byte, language string) (*ocr.Result, error)
}

// Service implements SnapOCRServer.
type Service struct {
	session   Session
	imageBase string
}

// NewService creates the service. imageBase, when set, is the HTTP base URL
// used to fill each record's file_path.
func NewService(s Session, imageBase string) *Service {
	return &Service{session: s, imageBase: imageBase}
}

// NewServer creates a grpc.Server with tracing and error interceptors, message
// limits sized for full-screen captures and the service registered.
func NewServer(svc *Service, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.MaxRecvMsgSize(MaxMessageBytes),
		grpc.MaxSendMsgSize(MaxMessageBytes),
		grpc.ChainUnaryInterceptor(trace.UnaryServerInterceptor(), errorInterceptor),
	)
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, svc)
	return srv
}

// errorInterceptor turns every failure into a status carrying ErrorInfo.
func errorInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return nil, appErr.GRPCStatus().Err()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	}
	if _, ok := status.FromError(err); ok {
		return nil, err
	}
	return nil, apperrors.As(err).GRPCStatus().Err()
}

func (s *Service) Recognize(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if len(in.GetValue()) == 0 {
		return nil, apperrors.New(apperrors.InvalidArgument, "image is empty")
	}
	res, err := s.session.Recognize(ctx, in.GetValue(), languageFrom(ctx))
	if err != nil {
		return nil, err
	}
	return ResultToStruct(res)
}

func (s *Service) Capture(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	set, err := s.session.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return RecordsToList(set.Records(s.pathFor()))
}

func (s *Service) LastCaptures(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	set, err := s.session.Last()
	if err != nil {
		return nil, err
	}
	return RecordsToList(set.Records(s.pathFor()))
}

func (s *Service) ClearCaptures(_ context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.session.Cancel()
	return &emptypb.Empty{}, nil
}

func (s *Service) pathFor() func(int) string {
	if s.imageBase == "" {
		return nil
	}
	return func(i int) string { return fmt.Sprintf("%s/screen/%d.bmp", s.imageBase, i) }
}

func languageFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(LanguageKey); len(v) > 0 {
		return v[0]
	}
	return ""
}
