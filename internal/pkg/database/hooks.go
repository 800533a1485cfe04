package database

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

// CommitHooks collects callbacks that must only run once the outermost
// transaction has committed.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks attaches a fresh hook list to ctx. Transactors call it when
// they open the outermost transaction.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// HasCommitHooks reports whether ctx already belongs to a transaction.
func HasCommitHooks(ctx context.Context) bool {
	_, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	return ok
}

// AfterCommit defers fn until the transaction carried by ctx commits. Outside
// a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if !ok {
		fn(ctx)
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}

// Run executes the collected hooks in registration order. Hooks are dropped
// after running.
func (h *CommitHooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}
