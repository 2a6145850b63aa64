package reel

import (
	"context"
	"sync"
)

// Join runs a and b concurrently and pairs their results. The first failure cancels the
// other task's context and is the error returned; Join still waits for both to return.
func Join[A, B any](ctx context.Context, a func(context.Context) (A, error), b func(context.Context) (B, error)) (A, B, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		ra    A
		rb    B
		first error
		once  sync.Once
		wg    sync.WaitGroup
	)
	fail := func(err error) {
		once.Do(func() {
			first = err
			cancel()
		})
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := a(ctx)
		if err != nil {
			fail(err)
			return
		}
		ra = v
	}()
	go func() {
		defer wg.Done()
		v, err := b(ctx)
		if err != nil {
			fail(err)
			return
		}
		rb = v
	}()
	wg.Wait()

	if first != nil {
		var za A
		var zb B
		return za, zb, first
	}
	return ra, rb, nil
}
