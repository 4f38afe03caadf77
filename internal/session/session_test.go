package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/screen"
)

// patternCapture builds a 64x64 display capture: 0 is solid gray, 1 a
// checkerboard, 2 a horizontal gradient.
func patternCapture(t *testing.T, pattern int) screen.MonitorCapture {
	t.Helper()
	const size = 64
	px := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var v byte
			switch pattern {
			case 0:
				v = 128
			case 1:
				if (x/8+y/8)%2 == 0 {
					v = 255
				}
			case 2:
				v = byte(x * 4)
			}
			i := (y*size + x) * 4
			px[i], px[i+1], px[i+2], px[i+3] = v, v, 255-v, 255
		}
	}
	img, err := screen.EncodeBMP(size, size, px)
	if err != nil {
		t.Fatal(err)
	}
	return screen.MonitorCapture{
		Image:          img,
		PhysicalWidth:  size,
		PhysicalHeight: size,
		LogicalWidth:   size,
		LogicalHeight:  size,
		ScaleFactor:    1,
	}
}

type fakeCapturer struct {
	mu    sync.Mutex
	sets  []screen.CaptureSet
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeCapturer) CaptureAll(context.Context) (screen.CaptureSet, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	set := f.sets[0]
	if len(f.sets) > 1 {
		f.sets = f.sets[1:]
	}
	return set, nil
}

func (f *fakeCapturer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecognizer struct {
	image []byte
	lang  string
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(_ context.Context, image []byte, language string) (*ocr.Result, error) {
	f.image, f.lang = image, language
	return ocr.NewResult([]ocr.Line{{Text: "hello"}}), nil
}

func newManager(t *testing.T, c screen.Capturer) (*Manager, *fakeRecognizer) {
	t.Helper()
	r := &fakeRecognizer{}
	m := New(c, r)
	t.Cleanup(m.Stop)
	return m, r
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestLastBeforeCapture(t *testing.T) {
	m, _ := newManager(t, &fakeCapturer{})
	if _, err := m.Last(); !apperrors.IsCode(err, apperrors.NotCaptured) {
		t.Errorf("Last() err = %v, want %s", err, apperrors.NotCaptured)
	}
}

func TestCaptureStoresAndPublishes(t *testing.T) {
	set := screen.CaptureSet{patternCapture(t, 0), patternCapture(t, 1)}
	m, _ := newManager(t, &fakeCapturer{sets: []screen.CaptureSet{set}})
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	got, err := m.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d captures, want 2", len(got))
	}

	last, err := m.Last()
	if err != nil || len(last) != 2 {
		t.Fatalf("Last() = %d captures, %v", len(last), err)
	}
	if ev := receive(t, events); ev.Type != EventCaptured || ev.Displays != 2 {
		t.Errorf("event = %+v", ev)
	}

	img, err := m.Image(1)
	if err != nil || len(img) == 0 {
		t.Errorf("Image(1) = %d bytes, %v", len(img), err)
	}
}

func TestCaptureFailureKeepsPrevious(t *testing.T) {
	c := &fakeCapturer{sets: []screen.CaptureSet{{patternCapture(t, 0)}}}
	m, _ := newManager(t, c)

	if _, err := m.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	c.err = apperrors.DisplayError(apperrors.CaptureFailed, 0, errors.New("boom"))
	c.mu.Unlock()

	if _, err := m.Capture(context.Background()); !apperrors.IsCode(err, apperrors.CaptureFailed) {
		t.Fatalf("err = %v, want %s", err, apperrors.CaptureFailed)
	}
	if last, err := m.Last(); err != nil || len(last) != 1 {
		t.Errorf("previous set lost: %d captures, %v", len(last), err)
	}
}

func TestCancel(t *testing.T) {
	m, _ := newManager(t, &fakeCapturer{sets: []screen.CaptureSet{{patternCapture(t, 0)}}})
	if _, err := m.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Cancel()
	if _, err := m.Last(); !apperrors.IsCode(err, apperrors.NotCaptured) {
		t.Errorf("Last() after Cancel err = %v", err)
	}
	if ev := receive(t, events); ev.Type != EventCleared {
		t.Errorf("event = %+v, want cleared", ev)
	}
}

func TestRecognize(t *testing.T) {
	m, r := newManager(t, &fakeCapturer{})
	res, err := m.Recognize(context.Background(), []byte{1, 2}, "zh")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "hello" || len(r.image) != 2 || r.lang != "zh" {
		t.Errorf("result %+v, image %v, lang %q", res, r.image, r.lang)
	}
}

func TestCallerGivesUpJobCompletes(t *testing.T) {
	c := &fakeCapturer{sets: []screen.CaptureSet{{patternCapture(t, 0)}}, gate: make(chan struct{})}
	m, _ := newManager(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Capture(ctx)
		done <- err
	}()

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	close(c.gate)

	// the job may or may not have been queued before cancel; a follow-up
	// capture is serialized behind it either way
	if _, err := m.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if _, err := m.Last(); err != nil {
		t.Errorf("Last() = %v", err)
	}
}

func TestStop(t *testing.T) {
	m := New(&fakeCapturer{}, &fakeRecognizer{})
	m.Stop()
	m.Stop()

	if _, err := m.Capture(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("err = %v, want ErrStopped", err)
	}
}

func TestCaptureOnlyChanged(t *testing.T) {
	gray := patternCapture(t, 0)
	checker := patternCapture(t, 1)
	c := &fakeCapturer{sets: []screen.CaptureSet{{checker}, {checker}, {patternCapture(t, 2)}, {gray, checker}}}
	m, _ := newManager(t, c)
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	steps := []struct {
		name   string
		stored bool
	}{
		{"first frame", true},
		{"identical frame", false},
		{"different frame", true},
		{"display added", true},
	}
	for _, s := range steps {
		if _, err := m.capture(ctx, true); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		select {
		case <-events:
			if !s.stored {
				t.Errorf("%s: unexpected event", s.name)
			}
		default:
			if s.stored {
				t.Errorf("%s: expected captured event", s.name)
			}
		}
	}
}

func TestManualCaptureSkipsHashing(t *testing.T) {
	checker := patternCapture(t, 1)
	c := &fakeCapturer{sets: []screen.CaptureSet{{checker}}}
	m, _ := newManager(t, c)
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	hashCount := func() int {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.hashes)
	}
	stored := func() bool {
		select {
		case <-events:
			return true
		default:
			return false
		}
	}

	ctx := context.Background()
	if _, err := m.capture(ctx, true); err != nil {
		t.Fatal(err)
	}
	if !stored() || hashCount() != 1 {
		t.Fatalf("watch capture: hashes = %d, want 1 and a stored set", hashCount())
	}

	if _, err := m.Capture(ctx); err != nil {
		t.Fatal(err)
	}
	if !stored() {
		t.Error("manual capture not stored")
	}
	if n := hashCount(); n != 0 {
		t.Errorf("manual capture left %d hashes, want none", n)
	}

	steps := []struct {
		name   string
		stored bool
	}{
		{"first tick after manual capture", true},
		{"identical tick", false},
	}
	for _, s := range steps {
		if _, err := m.capture(ctx, true); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if got := stored(); got != s.stored {
			t.Errorf("%s: stored = %v, want %v", s.name, got, s.stored)
		}
		if hashCount() != 1 {
			t.Errorf("%s: hashes = %d, want 1", s.name, hashCount())
		}
	}
}

func TestWatch(t *testing.T) {
	c := &fakeCapturer{sets: []screen.CaptureSet{{patternCapture(t, 1)}}}
	m, _ := newManager(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	go m.Watch(ctx, 50)
	if ev := receive(t, events); ev.Type != EventCaptured {
		t.Errorf("event = %+v", ev)
	}
	if _, err := m.Last(); err != nil {
		t.Errorf("Last() = %v", err)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m, _ := newManager(t, &fakeCapturer{})
	events, unsubscribe := m.Subscribe()
	unsubscribe()
	unsubscribe()
	if _, ok := <-events; ok {
		t.Error("channel should be closed")
	}
	m.Cancel()
}
