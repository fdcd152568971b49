package journal

import "time"

// Logs returns the current reactive log list.
func (j *Journal) Logs() []Log {
	j.listMu.Lock()
	defer j.listMu.Unlock()
	return append([]Log(nil), j.list...)
}

// SetLogs replaces the list. The last call wins; there is no guard against
// an older load finishing after a newer one.
func (j *Journal) SetLogs(logs []Log) {
	j.listMu.Lock()
	defer j.listMu.Unlock()
	j.list = append([]Log(nil), logs...)
	j.bump()
}

func (j *Journal) prepend(l Log) {
	j.listMu.Lock()
	defer j.listMu.Unlock()
	j.list = append([]Log{l}, j.list...)
	j.bump()
}

func (j *Journal) bump() {
	j.version++
	close(j.notifyCh)
	j.notifyCh = make(chan struct{})
}

// Version increments on every list change.
func (j *Journal) Version() uint64 {
	j.listMu.Lock()
	defer j.listMu.Unlock()
	return j.version
}

// Changed returns a channel closed by the next list change.
func (j *Journal) Changed() <-chan struct{} {
	j.listMu.Lock()
	defer j.listMu.Unlock()
	return j.notifyCh
}

// Wait blocks until the list changes or timeout elapses.
func (j *Journal) Wait(timeout time.Duration) bool {
	ch := j.Changed()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}
