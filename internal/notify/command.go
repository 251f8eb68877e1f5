package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// CommandSink runs a desktop notifier such as notify-send with the title
// and body appended as the last two arguments. A circuit breaker stops
// spawning the command after repeated failures.
type CommandSink struct {
	argv    []string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *zap.Logger
}

// NewCommandSink returns nil when argv is empty
func NewCommandSink(argv []string, failures int, logger *zap.Logger) *CommandSink {
	if len(argv) == 0 {
		return nil
	}
	if failures <= 0 {
		failures = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CommandSink{
		argv:    append([]string{}, argv...),
		timeout: 10 * time.Second,
		logger:  logger,
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "notify-command",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Notifier breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

func (s *CommandSink) Name() string { return "command" }

func (s *CommandSink) Notify(ctx context.Context, n Notification) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		args := append(append([]string{}, s.argv[1:]...), n.Title, n.Body)
		out, err := exec.CommandContext(ctx, s.argv[0], args...).CombinedOutput()
		if err != nil {
			return struct{}{}, fmt.Errorf("%s: %w: %s", s.argv[0], err, out)
		}
		return struct{}{}, nil
	})
	return err
}
