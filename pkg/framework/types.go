package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Iteration describes one pass of a Loop.
type Iteration interface {
	// Context retrieves context.Context of the running loop.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Count is the 1-based number of this iteration.
	Count() uint64
}

// Step is one unit of work executed in every iteration.
type Step interface {
	Step(Iteration) error
}

// StepFunc is the func form of Step.
type StepFunc func(Iteration) error

// Step implements Step.
func (f StepFunc) Step(it Iteration) error {
	return f(it)
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
