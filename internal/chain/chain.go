// Package chain defines the composable pipeline abstraction every docqa
// processing step is built on. A Chain is a unary transformation from I to O.
// Chains are composed with [Then], which type-checks at compile time that the
// output of one link is the input of the next.
//
// Composition is purely structural: nothing runs until the composed chain's
// Run is called, and links then execute sequentially on the caller's
// goroutine, left to right, each link's full output becoming the next link's
// sole input.
package chain

import (
	"context"
	"errors"
	"io"
)

// Chain is a single pipeline link transforming an input of type I into an
// output of type O.
type Chain[I, O any] interface {
	// Run executes the link. Any failure fails the whole run; no partial
	// output is returned alongside an error.
	Run(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function to the Chain interface.
type Func[I, O any] func(ctx context.Context, input I) (O, error)

// Run calls f.
func (f Func[I, O]) Run(ctx context.Context, input I) (O, error) {
	return f(ctx, input)
}

// resourceHolder is implemented by composed chains so that the release
// functions of every link survive further composition.
type resourceHolder interface {
	resources() []io.Closer
}

// Composed is the result of [Then]. It runs its links in order and releases
// the resources owned by any link that implements io.Closer.
type Composed[I, O any] struct {
	// run is the fused execution of all links.
	run func(ctx context.Context, input I) (O, error)

	// closers holds the releasable links in composition order.
	closers []io.Closer
}

// Then composes first and next into a chain whose Run is
// next.Run(first.Run(input)). If either link owns a resource (implements
// io.Closer, or is itself a composed chain holding one), the returned chain's
// Close releases it.
func Then[I, M, O any](first Chain[I, M], next Chain[M, O]) *Composed[I, O] {
	closers := append(resourcesOf(first), resourcesOf(next)...) //nolint:gocritic // fresh slice from resourcesOf
	return &Composed[I, O]{
		run: func(ctx context.Context, input I) (O, error) {
			mid, err := first.Run(ctx, input)
			if err != nil {
				var zero O
				return zero, err
			}
			return next.Run(ctx, mid)
		},
		closers: closers,
	}
}

// Run executes every composed link in order.
func (c *Composed[I, O]) Run(ctx context.Context, input I) (O, error) {
	return c.run(ctx, input)
}

// Close releases resources held by the composed links in reverse
// composition order. All closers are called; their errors are joined.
func (c *Composed[I, O]) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Composed[I, O]) resources() []io.Closer {
	out := make([]io.Closer, len(c.closers))
	copy(out, c.closers)
	return out
}

// resourcesOf returns the releasable resources carried by link.
func resourcesOf(link any) []io.Closer {
	switch v := link.(type) {
	case resourceHolder:
		return v.resources()
	case io.Closer:
		return []io.Closer{v}
	default:
		return []io.Closer{}
	}
}
