package alarm

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Recorder is an in-memory Service that records what was asked of it.
// Setting one of the Fail fields makes the matching call return that error.
type Recorder struct {
	mu       sync.Mutex
	alarms   map[string]Trigger
	channels []Channel

	PermissionRequests int

	FailPermission error
	FailSchedule   error
	FailCancel     error
}

func NewRecorder() *Recorder {
	return &Recorder{alarms: make(map[string]Trigger)}
}

func (r *Recorder) RequestPermission(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.PermissionRequests++
	return r.FailPermission
}

func (r *Recorder) CreateChannel(ctx context.Context, ch Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = append(r.channels, ch)
	return nil
}

func (r *Recorder) ScheduleDaily(ctx context.Context, t Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSchedule != nil {
		return r.FailSchedule
	}
	r.alarms[t.Key] = t
	return nil
}

func (r *Recorder) Cancel(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCancel != nil {
		return r.FailCancel
	}
	delete(r.alarms, key)
	return nil
}

// Put seeds an alarm directly, bypassing permission
func (r *Recorder) Put(t Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alarms[t.Key] = t
}

// Keys returns the recorded keys starting with prefix, sorted
func (r *Recorder) Keys(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := []string{}
	for key := range r.alarms {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Trigger returns the recorded trigger for key
func (r *Recorder) Trigger(key string) (Trigger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.alarms[key]
	return t, ok
}

// Channels returns the channels created so far
func (r *Recorder) Channels() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Channel{}, r.channels...)
}
