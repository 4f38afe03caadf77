package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/GriffinCanCode/snapocr/internal/grpcclient"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/rpc"
	"github.com/GriffinCanCode/snapocr/internal/screen"
)

type stubSession struct{}

func (stubSession) Capture(context.Context) (screen.CaptureSet, error) {
	return screen.CaptureSet{{ScaleFactor: 2}}, nil
}
func (stubSession) Last() (screen.CaptureSet, error) { return nil, screen.ErrNotCaptured }
func (stubSession) Cancel()                          {}
func (stubSession) Recognize(context.Context, []byte, string) (*ocr.Result, error) {
	return ocr.NewResult([]ocr.Line{{Text: "line one"}, {Text: "line two"}}), nil
}

func testClient(t *testing.T) *grpcclient.Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := rpc.NewServer(rpc.NewService(stubSession{}, "http://localhost:8765"))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := grpcclient.New("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRunCommands(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	img := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(img, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(ctx, c, &out, []string{"ocr", img}, "en", true); err != nil {
		t.Fatalf("ocr: %v", err)
	}
	if out.String() != "line one\nline two\n" {
		t.Errorf("ocr -text output = %q", out.String())
	}

	out.Reset()
	if err := run(ctx, c, &out, []string{"capture"}, "", false); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !strings.Contains(out.String(), `"file_path": "http://localhost:8765/screen/0.bmp"`) {
		t.Errorf("capture output = %s", out.String())
	}

	if err := run(ctx, c, &out, []string{"last"}, "", false); err == nil {
		t.Error("last before capture should fail")
	}
	if err := run(ctx, c, &out, []string{"clear"}, "", false); err != nil {
		t.Errorf("clear: %v", err)
	}
	if err := run(ctx, c, &out, []string{"ocr"}, "", false); err == nil {
		t.Error("ocr without file should fail")
	}
	if err := run(ctx, c, &out, []string{"bogus"}, "", false); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestDialAddr(t *testing.T) {
	if got := dialAddr(":8766"); got != "localhost:8766" {
		t.Errorf("dialAddr = %q", got)
	}
	if got := dialAddr("snap:1"); got != "snap:1" {
		t.Errorf("dialAddr = %q", got)
	}
}
