package symposium

import (
	"context"
	"sync"

	"github.com/agora-dev/symposium/internal/executor"
)

// Future is the read side of a workflow result. Get blocks until the final
// step completes.
type Future[T any] interface {
	// can't type alias this (yet) because of the type parameter
	Get() (T, error)
}

// deferredPromise buffers the raw result of the final step and forwards it
// to the typed future and the hook when the workflow closes. Buffering keeps
// hook callbacks out of the executor's goroutines.
type deferredPromise[T any] struct {
	promise executor.CompletableFuture[T]
	hook    Hook[T]
	mu      sync.Mutex
	value   string
	err     error
	once    sync.Once
}

func (d *deferredPromise[T]) Forward(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		d.promise.Error(d.err)
		return
	}

	d.promise.Complete(d.value)
	res, err := d.promise.Get()
	if err != nil {
		d.hook.OnError(ctx, err)
		return
	}
	d.hook.OnResult(ctx, res)
}

func (d *deferredPromise[T]) Complete(result string) {
	d.once.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.value = result
	})
}

func (d *deferredPromise[T]) Error(err error) {
	d.once.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.err = err
	})
}

type noopPromise struct{}

func (noopPromise) Complete(string) {}
func (noopPromise) Error(error)     {}
