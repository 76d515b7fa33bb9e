// Package session ties one hand-stream's classifier and control loop together
// behind an enable/disable lifecycle.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/handlevel/internal/actuator"
	"github.com/ayusman/handlevel/internal/control"
	"github.com/ayusman/handlevel/internal/gesture"
	"github.com/ayusman/handlevel/internal/landmark"
)

// ErrDisabled is returned by Process while the session is off.
var ErrDisabled = errors.New("session disabled")

// Frame is one detector result. A nil Landmarks means no hand was found.
type Frame struct {
	Landmarks *landmark.HandLandmarks
	Timestamp time.Time
}

// Snapshot is the externally visible session state.
type Snapshot struct {
	Enabled   bool              `json:"enabled"`
	Gesture   gesture.State     `json:"gesture"`
	Value     float64           `json:"value"`
	Direction control.Direction `json:"direction"`
	Timestamp time.Time         `json:"timestamp"`
	Err       string            `json:"error,omitempty"`
}

// Config bundles the classifier and loop settings of a session.
type Config struct {
	Gesture gesture.Config
	Control control.Config
}

// DefaultConfig returns the fast calibration.
func DefaultConfig() Config {
	return Config{
		Gesture: gesture.DefaultConfig(),
		Control: control.DefaultConfig(),
	}
}

// Session is safe for concurrent use. It starts disabled.
type Session struct {
	loop *control.Loop

	mu         sync.Mutex
	config     Config
	classifier *gesture.Classifier
	enabled    bool
	failure    error
	gesture    gesture.State
	timestamp  time.Time

	subscribers map[int]chan Snapshot
	nextID      int
}

// New creates a disabled session whose loop drives sink. opts are passed to
// the control loop; an observer option is replaced by the session's own.
func New(config Config, sink actuator.Sink, opts ...control.Option) *Session {
	s := &Session{
		config:      config,
		classifier:  gesture.NewClassifier(config.Gesture),
		gesture:     gesture.NoHand,
		subscribers: make(map[int]chan Snapshot),
	}
	opts = append(opts, control.WithObserver(s.onTick))
	s.loop = control.NewLoop(config.Control, sink, opts...)
	s.config.Control = s.loop.Config()
	s.config.Gesture = s.classifier.Config()
	return s
}

// Process classifies one frame and steers the loop with the result.
// Malformed landmarks return an error wrapping landmark.ErrInvalidInput and
// leave the session untouched.
func (s *Session) Process(f Frame) (gesture.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return s.gesture, ErrDisabled
	}

	var state gesture.State
	if f.Landmarks == nil {
		state = s.classifier.Absent()
	} else {
		var err error
		state, err = s.classifier.Classify(f.Landmarks.Points)
		if err != nil {
			log.Printf("Skipping frame: %v", err)
			return state, err
		}
	}

	if state != s.gesture {
		log.Printf("Gesture: %s -> %s", s.gesture, state)
	}
	s.gesture = state
	s.timestamp = f.Timestamp
	if s.timestamp.IsZero() {
		s.timestamp = time.Now()
	}

	s.loop.SetDirection(state)
	s.publishLocked()
	return state, nil
}

// Enable resets the classifier and the loop and starts accepting frames.
// It fails while a detector failure is recorded.
func (s *Session) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failure != nil {
		return fmt.Errorf("session failed: %w", s.failure)
	}

	s.resetLocked()
	if !s.enabled {
		log.Println("Session enabled")
	}
	s.enabled = true
	s.publishLocked()
	return nil
}

// Disable stops the loop, resets the value and rejects further frames.
func (s *Session) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disableLocked()
	s.publishLocked()
}

// Fail records a fatal detector error and disables the session.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("Session failed: %v", err)
	s.failure = err
	s.disableLocked()
	s.publishLocked()
}

// ClearFailure forgets a recorded failure so Enable can succeed again.
func (s *Session) ClearFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failure = nil
	s.publishLocked()
}

// Failure returns the recorded failure, if any.
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Enabled reports whether the session accepts frames.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Configure applies a new calibration. The classifier starts over; the loop
// keeps its value.
func (s *Session) Configure(config Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classifier = gesture.NewClassifier(config.Gesture)
	s.loop.SetConfig(config.Control)
	s.config = Config{Gesture: s.classifier.Config(), Control: s.loop.Config()}
	if s.enabled {
		s.gesture = gesture.NoHand
		s.loop.Steer(control.Hold)
	}
	s.publishLocked()
}

// Config returns the effective calibration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that always holds the most recent snapshot.
// Slow readers miss intermediate snapshots rather than blocking the session.
// The current snapshot is delivered immediately. cancel closes the channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close disables the session and closes every subscription.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disableLocked()
	s.loop.Close()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	return nil
}

func (s *Session) resetLocked() {
	s.classifier.Reset()
	s.loop.Reset()
	s.gesture = gesture.NoHand
	s.timestamp = time.Now()
}

func (s *Session) disableLocked() {
	// The loop is reset even when already disabled.
	s.resetLocked()
	if s.enabled {
		log.Println("Session disabled")
	}
	s.enabled = false
}

func (s *Session) onTick(control.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	ls := s.loop.State()
	snap := Snapshot{
		Enabled:   s.enabled,
		Gesture:   s.gesture,
		Value:     ls.Value,
		Direction: ls.Direction,
		Timestamp: s.timestamp,
	}
	if s.failure != nil {
		snap.Err = s.failure.Error()
	}
	return snap
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
