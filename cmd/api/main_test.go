package main

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	t.Run("drained", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			wg.Done()
		}()

		if !waitFor(context.Background(), &wg) {
			t.Error("expected wait group to drain")
		}
	})

	t.Run("deadline first", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)
		defer wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if waitFor(ctx, &wg) {
			t.Error("expected deadline to win over a stuck wait group")
		}
	})
}
