package grpcclient

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/rpc"
	"github.com/GriffinCanCode/snapocr/internal/screen"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

type mockSession struct {
	captured bool
	ocrErr   error
	language string
	traceID  string
	imageLen int
}

func (m *mockSession) Capture(context.Context) (screen.CaptureSet, error) {
	m.captured = true
	return screen.CaptureSet{{PhysicalX: 2400, LogicalX: 1920, ScaleFactor: 1.25}}, nil
}

func (m *mockSession) Last() (screen.CaptureSet, error) {
	if !m.captured {
		return nil, screen.ErrNotCaptured
	}
	return screen.CaptureSet{{ScaleFactor: 1.25}}, nil
}

func (m *mockSession) Cancel() { m.captured = false }

func (m *mockSession) Recognize(ctx context.Context, image []byte, language string) (*ocr.Result, error) {
	m.language = language
	m.imageLen = len(image)
	if tc, ok := trace.FromContext(ctx); ok {
		m.traceID = tc.TraceID
	}
	if m.ocrErr != nil {
		return nil, m.ocrErr
	}
	return ocr.NewResult([]ocr.Line{{Text: "hi", Words: []ocr.Word{{Text: "hi"}}, WordGaps: []float64{}}}), nil
}

func newTestClient(t *testing.T, sess rpc.Session) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := rpc.NewServer(rpc.NewService(sess, ""))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := New("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRecognize(t *testing.T) {
	sess := &mockSession{}
	c := newTestClient(t, sess)

	ctx := trace.WithContext(context.Background(), trace.New())
	tc, _ := trace.FromContext(ctx)

	res, err := c.Recognize(ctx, []byte("img"), "zh-CN")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "hi" || len(res.Lines) != 1 {
		t.Errorf("result = %+v", res)
	}
	if sess.language != "zh-CN" {
		t.Errorf("language = %q", sess.language)
	}
	if sess.traceID != tc.TraceID {
		t.Errorf("trace id = %q, want %q", sess.traceID, tc.TraceID)
	}
}

func TestRecognizeNoLanguage(t *testing.T) {
	sess := &mockSession{}
	c := newTestClient(t, sess)
	if _, err := c.Recognize(context.Background(), []byte("img"), ""); err != nil {
		t.Fatal(err)
	}
	if sess.language != "" {
		t.Errorf("language = %q, want none", sess.language)
	}
}

func TestRecognizeLargeImage(t *testing.T) {
	const w, h = 2560, 1440
	bmp, err := screen.EncodeBMP(w, h, make([]byte, w*h*4))
	if err != nil {
		t.Fatal(err)
	}
	sess := &mockSession{}
	c := newTestClient(t, sess)
	if _, err := c.Recognize(context.Background(), bmp, ""); err != nil {
		t.Fatalf("Recognize %d bytes: %v", len(bmp), err)
	}
	if sess.imageLen != len(bmp) {
		t.Errorf("server saw %d bytes, want %d", sess.imageLen, len(bmp))
	}
}

func TestRecognizeError(t *testing.T) {
	c := newTestClient(t, &mockSession{ocrErr: apperrors.New(apperrors.BackendUnavailable, "tesseract not found")})
	_, err := c.Recognize(context.Background(), []byte("img"), "")
	if !apperrors.IsCode(err, apperrors.BackendUnavailable) {
		t.Errorf("err = %v, want %s", err, apperrors.BackendUnavailable)
	}
}

func TestCaptureLifecycle(t *testing.T) {
	c := newTestClient(t, &mockSession{})
	ctx := context.Background()

	if _, err := c.LastCaptures(ctx); !apperrors.IsCode(err, apperrors.NotCaptured) {
		t.Fatalf("LastCaptures before capture: %v", err)
	}

	records, err := c.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(records) != 1 || records[0].PhysicalX != 2400 || records[0].FilePath != "" {
		t.Errorf("records = %+v", records)
	}

	if _, err := c.LastCaptures(ctx); err != nil {
		t.Errorf("LastCaptures: %v", err)
	}
	if err := c.ClearCaptures(ctx); err != nil {
		t.Fatalf("ClearCaptures: %v", err)
	}
	if _, err := c.LastCaptures(ctx); !apperrors.IsCode(err, apperrors.NotCaptured) {
		t.Errorf("LastCaptures after clear: %v", err)
	}
}
