package profile

// Profiler describes a single profiling session.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Option configures a [Profiler].
type Option func(Profiler) Profiler

// Make returns a Profiler with opts applied in order.
func Make(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// WithMode sets the profiling mode. See [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the directory profiles are written to.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet suppresses the profiler's own start/stop messages.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Start begins profiling and returns a Stopper that ends it.
//
// An empty or unsupported mode, or a binary built without the pprof tag,
// yields a no-op. Start and Stop are always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
