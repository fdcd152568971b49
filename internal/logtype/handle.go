package logtype

import (
	"reflect"
	"sync"
	"time"
)

// Handle is the observable current value of one canonical log type. The
// store hands out one Handle per id; every write of the canonical record
// publishes through it.
type Handle struct {
	id string

	mu       sync.Mutex
	value    LogType
	loaded   bool
	version  uint64
	notifyCh chan struct{}
}

func newHandle(id string) *Handle {
	return &Handle{id: id, notifyCh: make(chan struct{})}
}

// ID returns the canonical id the handle observes.
func (h *Handle) ID() string { return h.id }

// Get returns the last published value. ok is false until the record has
// been loaded or written at least once.
func (h *Handle) Get() (LogType, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.loaded {
		return LogType{}, false
	}
	return h.value.Clone(), true
}

// Version increments on every publish that changed the value.
func (h *Handle) Version() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

// Changed returns a channel closed by the next publish.
func (h *Handle) Changed() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.notifyCh
}

// Wait blocks until the next publish or timeout. It returns true if woken by
// a publish. A non-positive timeout waits indefinitely.
func (h *Handle) Wait(timeout time.Duration) bool {
	ch := h.Changed()
	if timeout <= 0 {
		<-ch
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// publish stores lt and wakes observers. Republishing an identical value is
// a no-op.
func (h *Handle) publish(lt LogType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded && reflect.DeepEqual(Serialize(h.value), Serialize(lt)) {
		return false
	}
	h.value = lt.Clone()
	h.loaded = true
	h.version++
	close(h.notifyCh)
	h.notifyCh = make(chan struct{})
	return true
}
