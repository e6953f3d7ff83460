package trigger

import (
	"context"
	"testing"
	"time"
)

func TestTimerLoopExitsImmediatelyOnInvalidExpression(t *testing.T) {
	done := make(chan struct{})
	loop := &TimerLoop{
		Expression: "not a cron expression",
		Dispatch:   func(context.Context, map[string]string) {},
	}
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for an invalid cron expression")
	}
}

func TestTimerLoopStopsOnContextCancel(t *testing.T) {
	loop := &TimerLoop{
		Expression: "0 0 1 1 *", // once a year; next fire is always far away
		Dispatch:   func(context.Context, map[string]string) {},
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
