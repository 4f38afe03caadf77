// Package session owns the capture cache and serializes capture and OCR work
// on a dedicated worker goroutine.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/corona10/goimagehash"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/screen"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// EventType names a cache transition.
type EventType string

const (
	EventCaptured EventType = "captured"
	EventCleared  EventType = "cleared"
)

// Event is published whenever the cached capture set changes.
type Event struct {
	Type     EventType `json:"type"`
	Displays int       `json:"displays"`
}

// ErrStopped is returned for work submitted after Stop.
var ErrStopped = apperrors.New(apperrors.Internal, "session stopped")

type job struct {
	run  func()
	done chan struct{}
}

// Manager runs capture and recognition jobs one at a time and keeps the most
// recent capture set.
type Manager struct {
	capturer   screen.Capturer
	recognizer ocr.TextRecognizer
	cache      *screen.Cache

	jobs     chan job
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.Mutex
	hashes      []*goimagehash.ImageHash
	subscribers map[chan Event]struct{}
}

// New creates a manager and starts its worker.
func New(capturer screen.Capturer, recognizer ocr.TextRecognizer) *Manager {
	m := &Manager{
		capturer:    capturer,
		recognizer:  recognizer,
		cache:       screen.NewCache(),
		jobs:        make(chan job, JobQueueSize),
		stopCh:      make(chan struct{}),
		subscribers: make(map[chan Event]struct{}),
	}
	m.wg.Add(1)
	go m.worker()
	return m
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case j := <-m.jobs:
			j.run()
			close(j.done)
		}
	}
}

// Stop ends the worker after its current job. Pending jobs are abandoned.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// submit queues fn and waits for it. A caller that gives up gets ctx.Err()
// while fn still runs to completion; fn receives a context that is never
// canceled.
func (m *Manager) submit(ctx context.Context, fn func(context.Context)) error {
	jobCtx := context.WithoutCancel(ctx)
	j := job{run: func() { fn(jobCtx) }, done: make(chan struct{})}

	select {
	case m.jobs <- j:
	case <-m.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-j.done:
		return nil
	case <-m.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recognizer returns the OCR backend in use.
func (m *Manager) Recognizer() ocr.TextRecognizer { return m.recognizer }

// Capture captures every display, stores the set and returns it. On failure
// the previous set stays cached.
func (m *Manager) Capture(ctx context.Context) (screen.CaptureSet, error) {
	var set screen.CaptureSet
	var err error
	if serr := m.submit(ctx, func(ctx context.Context) {
		set, err = m.capture(ctx, false)
	}); serr != nil {
		return nil, serr
	}
	return set, err
}

// capture runs one capture. With onlyChanged it stores the set only when the
// display layout or a display's perceptual hash moved. Hashes are computed
// only in that mode.
func (m *Manager) capture(ctx context.Context, onlyChanged bool) (screen.CaptureSet, error) {
	ctx, span := trace.StartSpan(ctx, "session.capture")
	defer span.End()

	set, err := m.capturer.CaptureAll(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
		return nil, err
	}

	if onlyChanged {
		hashes := hashSet(set)
		m.mu.Lock()
		changed := framesChanged(m.hashes, hashes)
		m.hashes = hashes
		m.mu.Unlock()
		if !changed {
			trace.Logger(ctx).Debug("capture unchanged", "displays", len(set))
			return set, nil
		}
	} else {
		// Manual captures skip hashing; the next watch tick starts over.
		m.mu.Lock()
		m.hashes = nil
		m.mu.Unlock()
	}
	m.cache.Store(set)
	m.publish(Event{Type: EventCaptured, Displays: len(set)})
	return set, nil
}

// Recognize runs OCR on an encoded image.
func (m *Manager) Recognize(ctx context.Context, image []byte, language string) (*ocr.Result, error) {
	var res *ocr.Result
	var err error
	if serr := m.submit(ctx, func(ctx context.Context) {
		res, err = m.recognizer.Recognize(ctx, image, language)
	}); serr != nil {
		return nil, serr
	}
	return res, err
}

// RecognizeFile runs OCR on an image file.
func (m *Manager) RecognizeFile(ctx context.Context, path, language string) (*ocr.Result, error) {
	var res *ocr.Result
	var err error
	if serr := m.submit(ctx, func(ctx context.Context) {
		res, err = ocr.RecognizeFile(ctx, m.recognizer, path, language)
	}); serr != nil {
		return nil, serr
	}
	return res, err
}

// Last returns the cached capture set.
func (m *Manager) Last() (screen.CaptureSet, error) { return m.cache.Get() }

// Image returns one display's encoded image from the cached set.
func (m *Manager) Image(index int) ([]byte, error) { return m.cache.Image(index) }

// Cancel drops the cached set.
func (m *Manager) Cancel() {
	m.cache.Clear()
	m.mu.Lock()
	m.hashes = nil
	m.mu.Unlock()
	m.publish(Event{Type: EventCleared})
}

// Watch captures at rate per second until ctx is done or the manager stops,
// replacing the cache whenever the screens change.
func (m *Manager) Watch(ctx context.Context, rate float64) {
	if rate <= 0 {
		rate = DefaultWatchRate
	}
	log := trace.Logger(ctx)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	log.Info("watching screens", "rate", rate)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			var err error
			if serr := m.submit(ctx, func(ctx context.Context) {
				_, err = m.capture(ctx, true)
			}); serr != nil {
				return
			}
			if err != nil {
				log.Debug("watch capture failed", "error", err)
			}
		}
	}
}

// Subscribe registers for cache events. The returned func unsubscribes and
// closes the channel.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, EventBuffer)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// publish sends an event to every subscriber (non-blocking).
func (m *Manager) publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
