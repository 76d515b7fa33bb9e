package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ayusman/handlevel/internal/plugin"
)

const (
	// SetVolumeAction is the plugin action PluginSink invokes.
	SetVolumeAction = "set-volume"
	// GetVolumeAction reads the current level back from a plugin.
	GetVolumeAction = "get-volume"
)

// MinLevelChange is the smallest level change PluginSink forwards, except
// when the level reaches 0 or 1.
const MinLevelChange = 0.01

// Runner executes one plugin request. *plugin.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginSink forwards levels to a plugin's set-volume action.
// SetLevel never blocks: only the latest level is kept and a worker goroutine
// applies it, one plugin process at a time.
type PluginSink struct {
	runner Runner
	plugin *plugin.Plugin

	latest chan float64
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	applied float64
	ok      bool
}

// NewPluginSink starts a PluginSink that runs p through runner.
func NewPluginSink(runner Runner, p *plugin.Plugin) *PluginSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PluginSink{
		runner: runner,
		plugin: p,
		latest: make(chan float64, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// SetLevel queues v, replacing any level the worker has not picked up yet.
func (s *PluginSink) SetLevel(v float64) {
	v = Clamp(v)
	for {
		select {
		case s.latest <- v:
			return
		default:
		}
		select {
		case <-s.latest:
		default:
		}
	}
}

// Applied returns the last level the plugin accepted.
func (s *PluginSink) Applied() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied, s.ok
}

// Close stops the worker, killing an in-flight plugin process, and waits for it to exit.
func (s *PluginSink) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *PluginSink) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		case v := <-s.latest:
			if s.shouldApply(v) {
				s.apply(v)
			}
		}
	}
}

func (s *PluginSink) shouldApply(v float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ok {
		return true
	}
	if v == s.applied {
		return false
	}
	if v == 0 || v == 1 {
		return true
	}
	return math.Abs(v-s.applied) >= MinLevelChange
}

func (s *PluginSink) apply(v float64) {
	level := v
	resp, err := s.runner.Execute(s.ctx, s.plugin, &plugin.Request{
		Action: SetVolumeAction,
		Level:  &level,
	})
	if err != nil {
		if s.ctx.Err() == nil {
			log.Printf("Plugin %s %s failed: %v", s.plugin.Manifest.Name, SetVolumeAction, err)
		}
		return
	}
	if !resp.Success {
		log.Printf("Plugin %s %s rejected level %.2f: %s", s.plugin.Manifest.Name, SetVolumeAction, v, resp.Error)
		return
	}

	s.mu.Lock()
	s.applied, s.ok = v, true
	s.mu.Unlock()
}

// ReadLevel asks p for its current level through GetVolumeAction.
func ReadLevel(ctx context.Context, runner Runner, p *plugin.Plugin) (float64, error) {
	if !p.Manifest.Supports(GetVolumeAction) {
		return 0, fmt.Errorf("plugin %s does not support %s", p.Manifest.Name, GetVolumeAction)
	}

	resp, err := runner.Execute(ctx, p, &plugin.Request{Action: GetVolumeAction})
	if err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, errors.New(resp.Error)
	}

	var data struct {
		Level *float64 `json:"level"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse %s data: %w", GetVolumeAction, err)
	}
	if data.Level == nil {
		return 0, fmt.Errorf("%s returned no level", GetVolumeAction)
	}
	return Clamp(*data.Level), nil
}
