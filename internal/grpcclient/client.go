// Package grpcclient provides a client for the snapocr gRPC service
package grpcclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/rpc"
	"github.com/GriffinCanCode/snapocr/internal/screen"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// Client calls a snapocr daemon
type Client struct {
	conn *grpc.ClientConn
}

// New creates a client for addr. Extra options are applied after the
// defaults.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    DefaultKeepaliveTime,
			Timeout: DefaultKeepaliveTimeout,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(rpc.MaxMessageBytes),
			grpc.MaxCallSendMsgSize(rpc.MaxMessageBytes),
		),
		grpc.WithChainUnaryInterceptor(trace.UnaryClientInterceptor()),
	}
	conn, err := grpc.NewClient(addr, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCallTimeout)
		defer cancel()
	}
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return apperrors.FromGRPCError(err)
	}
	return nil
}

// Recognize runs OCR on an encoded image. An empty language sends no hint.
func (c *Client) Recognize(ctx context.Context, image []byte, language string) (*ocr.Result, error) {
	if language != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, rpc.LanguageKey, language)
	}
	out := &structpb.Struct{}
	if err := c.invoke(ctx, rpc.RecognizeMethod, wrapperspb.Bytes(image), out); err != nil {
		return nil, err
	}
	return rpc.StructToResult(out)
}

// Capture captures every display on the daemon's host
func (c *Client) Capture(ctx context.Context) ([]screen.Record, error) {
	return c.records(ctx, rpc.CaptureMethod)
}

// LastCaptures returns the daemon's cached capture records
func (c *Client) LastCaptures(ctx context.Context) ([]screen.Record, error) {
	return c.records(ctx, rpc.LastCapturesMethod)
}

// ClearCaptures drops the daemon's cached captures
func (c *Client) ClearCaptures(ctx context.Context) error {
	return c.invoke(ctx, rpc.ClearCapturesMethod, &emptypb.Empty{}, &emptypb.Empty{})
}

func (c *Client) records(ctx context.Context, method string) ([]screen.Record, error) {
	out := &structpb.ListValue{}
	if err := c.invoke(ctx, method, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return rpc.ListToRecords(out)
}
