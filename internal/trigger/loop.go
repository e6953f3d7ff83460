package trigger

import "context"

// Loop is the common shape of every trigger flavor: a long-running task
// that runs until ctx is canceled. The scheduler starts one Loop per
// enabled flow's trigger and cancels its context to stop it.
type Loop interface {
	Run(ctx context.Context)
}

// LoopFunc adapts a plain function to the Loop interface.
type LoopFunc func(ctx context.Context)

func (f LoopFunc) Run(ctx context.Context) { f(ctx) }
