package snapshot

import (
	"context"
	"sync/atomic"
)

// Live holds the Builder currently in service. Config reloads swap it while
// requests keep building against whichever Builder they loaded.
type Live struct {
	p atomic.Pointer[Builder]
}

// NewLive returns a Live serving b.
func NewLive(b *Builder) *Live {
	l := &Live{}
	l.p.Store(b)
	return l
}

// Swap replaces the Builder in service.
func (l *Live) Swap(b *Builder) { l.p.Store(b) }

// Current returns the Builder in service.
func (l *Live) Current() *Builder { return l.p.Load() }

// Build runs one pass on the Builder in service.
func (l *Live) Build(ctx context.Context, opts Options) *Snapshot {
	return l.Current().Build(ctx, opts)
}

// SectionIDs returns the section ids of the Builder in service.
func (l *Live) SectionIDs() []string {
	return l.Current().SectionIDs()
}
