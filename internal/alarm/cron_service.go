package alarm

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/notify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// daily fires at first, then every 24 hours
type daily struct {
	first time.Time
}

func (d daily) Next(t time.Time) time.Time {
	if t.Before(d.first) {
		return d.first
	}
	periods := t.Sub(d.first)/(24*time.Hour) + 1
	return d.first.Add(periods * 24 * time.Hour)
}

type cronEntry struct {
	id      cron.EntryID
	trigger Trigger
}

// CronService is a local alarm service. Every key is one cron entry, and
// firing hands a notification to the sink.
type CronService struct {
	cron    *cron.Cron
	sink    notify.Sink
	enabled bool
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu        sync.RWMutex
	permitted bool
	channels  map[string]Channel
	entries   map[string]cronEntry
	running   bool
}

// NewCronService creates a service delivering to sink. When enabled is
// false every permission request is denied.
func NewCronService(sink notify.Sink, enabled bool, logger *zap.Logger) *CronService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	return &CronService{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		sink:     sink,
		enabled:  enabled,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		channels: make(map[string]Channel),
		entries:  make(map[string]cronEntry),
	}
}

// Start begins firing alarms
func (c *CronService) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.cron.Start()
	c.logger.Info("Alarm service started", zap.Int("alarms", len(c.entries)))
}

// Stop halts the scheduler and waits for running deliveries
func (c *CronService) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()
	<-c.cron.Stop().Done()
	c.logger.Info("Alarm service stopped")
}

func (c *CronService) RequestPermission(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return ErrPermissionDenied
	}
	c.permitted = true
	return nil
}

func (c *CronService) CreateChannel(ctx context.Context, ch Channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.channels[ch.ID] = ch
	return nil
}

func (c *CronService) ScheduleDaily(ctx context.Context, t Trigger) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.permitted {
		return ErrPermissionDenied
	}
	if existing, ok := c.entries[t.Key]; ok {
		c.cron.Remove(existing.id)
	}

	trigger := t
	id := c.cron.Schedule(daily{first: t.At}, cron.FuncJob(func() {
		c.fire(trigger)
	}))
	c.entries[t.Key] = cronEntry{id: id, trigger: t}
	return nil
}

func (c *CronService) Cancel(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.cron.Remove(entry.id)
		delete(c.entries, key)
	}
	return nil
}

// Keys returns the scheduled keys starting with prefix, sorted
func (c *CronService) Keys(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// NextFire returns when the alarm for key fires next after now
func (c *CronService) NextFire(key string, now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return daily{first: entry.trigger.At}.Next(now), true
}

func (c *CronService) fire(t Trigger) {
	n := notify.Notification{
		Key:        t.Key,
		MedicineID: t.MedicineID,
		Time:       t.Time,
		Title:      t.Title,
		Body:       t.Body,
		Channel:    t.ChannelID,
		FiredAt:    time.Now(),
	}
	if c.sink == nil {
		return
	}
	if err := c.sink.Notify(c.ctx, n); err != nil {
		c.logger.Warn("Alarm delivery failed", zap.String("key", t.Key), zap.Error(err))
	}
}

// cronLogger adapts zap to the cron logger interface
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
