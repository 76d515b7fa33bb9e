package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Preview fans the latest annotated JPEG frame out to stream viewers.
// Each viewer holds at most one pending frame; older frames are dropped.
type Preview struct {
	mu   sync.Mutex
	subs map[int]chan []byte
	next int
}

// NewPreview creates a Preview with no viewers.
func NewPreview() *Preview {
	return &Preview{subs: make(map[int]chan []byte)}
}

// Subscribe registers a viewer. cancel unregisters it and closes the channel.
func (p *Preview) Subscribe() (<-chan []byte, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.next
	p.next++
	ch := make(chan []byte, 1)
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(c)
			}
		})
	}
}

// Viewers returns the number of registered viewers.
func (p *Preview) Viewers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Publish hands jpeg to every viewer, replacing a frame it has not read yet.
func (p *Preview) Publish(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- jpeg:
		default:
		}
	}
}

// Close unregisters every viewer.
func (p *Preview) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

// EncodeJPEG encodes img as JPEG and returns a copy of the bytes.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
