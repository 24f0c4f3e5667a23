package binding

import (
	"context"
	"time"
)

const (
	DefaultPollInterval = 30 * time.Second
	MinPollInterval     = 5 * time.Second
	MaxPollInterval     = 10 * time.Minute
)

// ClampInterval bounds a poll interval; zero selects the default.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultPollInterval
	case d < MinPollInterval:
		return MinPollInterval
	case d > MaxPollInterval:
		return MaxPollInterval
	default:
		return d
	}
}

// Watcher polls one widget's template so edits propagate without fetching
// on every render. Each widget gets its own watcher.
type Watcher struct {
	resolver *Resolver
	content  Content
	interval time.Duration
	onChange func(Resolution)

	last    Resolution
	hasLast bool
}

// NewWatcher creates a watcher; onChange receives the first resolution and
// every later one whose code or source differs.
func NewWatcher(resolver *Resolver, content Content, interval time.Duration, onChange func(Resolution)) *Watcher {
	return &Watcher{
		resolver: resolver,
		content:  content,
		interval: ClampInterval(interval),
		onChange: onChange,
	}
}

// Interval is the effective poll interval after clamping.
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Run resolves immediately and, for by-reference content, keeps polling until
// ctx is done. Inlined and empty content cannot change and return at once.
func (w *Watcher) Run(ctx context.Context) error {
	w.poll(ctx)
	if _, live := w.content.(ByReference); !live {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	res := w.resolver.Resolve(ctx, w.content)
	if ctx.Err() != nil {
		return
	}
	if w.hasLast && res.sameAs(w.last) {
		return
	}
	w.last = res
	w.hasLast = true
	if w.onChange != nil {
		w.onChange(res)
	}
}
