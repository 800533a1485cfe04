package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommit_RunsImmediatelyOutsideTransaction(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func(ctx context.Context) { ran = true })
	assert.True(t, ran)
}

func TestAfterCommit_DeferredUntilRun(t *testing.T) {
	ctx, hooks := WithCommitHooks(context.Background())
	assert.True(t, HasCommitHooks(ctx))
	assert.False(t, HasCommitHooks(context.Background()))

	var order []string
	AfterCommit(ctx, func(ctx context.Context) { order = append(order, "first") })
	AfterCommit(ctx, func(ctx context.Context) { order = append(order, "second") })
	assert.Empty(t, order)

	hooks.Run(context.Background())
	assert.Equal(t, []string{"first", "second"}, order)

	hooks.Run(context.Background())
	assert.Len(t, order, 2, "hooks run once")
}
