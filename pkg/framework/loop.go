package framework

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is used when Loop.Interval is not set.
const DefaultInterval = 10 * time.Second

// Loop executes its steps in order, then sleeps Interval before the next
// iteration. Iterations never overlap.
type Loop struct {
	Interval time.Duration

	steps   []Step
	runners []Runnable
	count   uint64

	wakeUpCh chan struct{}
}

type loopIteration struct {
	ctx   context.Context
	time  time.Time
	count uint64
}

func (t *loopIteration) Context() context.Context { return t.ctx }
func (t *loopIteration) Time() time.Time          { return t.time }
func (t *loopIteration) Count() uint64            { return t.count }

// NewLoop creates a Loop.
func NewLoop(interval time.Duration) *Loop {
	return &Loop{Interval: interval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddStep appends steps. Steps which are also Runnable are started with the loop.
func (l *Loop) AddStep(steps ...Step) *Loop {
	l.steps = append(l.steps, steps...)
	for _, step := range steps {
		if runner, ok := step.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnables sharing the lifetime of the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// TriggerNext cuts the current sleep short.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable. The first iteration runs immediately.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(subCtx)
	runner.Go(l.runners...)
	defer runner.Wait()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-l.wakeUpCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		l.runIteration(ctx)
		timer.Reset(interval)
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	l.count++
	iter := &loopIteration{ctx: ctx, time: time.Now(), count: l.count}
	glog.V(4).Infof("loop iteration %d", iter.count)
	for _, step := range l.steps {
		if err := step.Step(iter); err != nil {
			glog.Errorf("loop step error: %v", err)
		}
	}
}
