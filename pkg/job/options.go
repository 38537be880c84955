package job

import (
	"context"
	"log/slog"
	"time"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
	jobTimeout time.Duration
	runOnStart bool
}

func newConfig() *config {
	return &config{
		registry:   newRegistry(),
		queues:     make(map[string]int),
		jobTimeout: 30 * time.Minute,
	}
}

type schedule struct {
	name string
	expr string
}

// Option configures a Manager.
type Option func(*config)

// WithTask registers a task. The payload type is inferred from Handle:
//
//	type CleanupTenant struct{ engine *retention.Engine }
//
//	func (t *CleanupTenant) Name() string { return "retention.cleanup_tenant" }
//	func (t *CleanupTenant) Handle(ctx context.Context, p TenantPayload) error { ... }
//
//	job.WithTask(tasks.NewCleanupTenant(engine))
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typedTask[P]{handle: task.Handle})
	}
}

// WithScheduledTask registers a periodic task. Schedule returns a five-field
// cron expression. An empty expression disables the task.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		if task.Schedule() == "" {
			return
		}
		c.registry.register(task.Name(), periodicTask(task.Handle))
		c.schedules = append(c.schedules, schedule{name: task.Name(), expr: task.Schedule()})
	}
}

// WithQueue adds a named queue with its own worker count.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger passed to River and used for task logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
// Default: 10
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithRunOnStart runs every periodic task once when the manager starts.
func WithRunOnStart() Option {
	return func(c *config) {
		c.runOnStart = true
	}
}

// WithJobTimeout bounds a single task run. Sweeps over many tenants need
// more than River's one-minute default. Default: 30m.
func WithJobTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}
