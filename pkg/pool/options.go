package pool

// Logger is the structured logger a pool writes lifecycle events to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type options struct {
	logger        Logger
	metrics       *Metrics
	panicHandler  func(*PanicError)
	queueCapacity int
}

// Option configures a Pool.
type Option func(*options)

// WithLogger sets the logger used for worker lifecycle and job panics.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports pool activity to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithPanicHandler registers fn to be called, on the worker goroutine,
// after a job panics.
func WithPanicHandler(fn func(*PanicError)) Option {
	return func(o *options) {
		o.panicHandler = fn
	}
}

// WithQueueCapacity bounds the queue. Submit blocks while the queue holds
// n jobs. Zero or less keeps the queue unbounded.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.queueCapacity = n
	}
}
