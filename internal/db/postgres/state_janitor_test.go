package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingDeleter struct {
	err   error
	calls atomic.Int32
}

func (d *countingDeleter) DeleteExpired(context.Context) (int64, error) {
	d.calls.Add(1)
	return 3, d.err
}

func TestStateJanitor_SweepsUntilCancelled(t *testing.T) {
	deleter := &countingDeleter{}
	janitor := NewStateJanitor(deleter, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return deleter.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestStateJanitor_SurvivesErrors(t *testing.T) {
	deleter := &countingDeleter{err: errors.New("db down")}
	janitor := NewStateJanitor(deleter, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go janitor.Run(ctx)

	assert.Eventually(t, func() bool { return deleter.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
