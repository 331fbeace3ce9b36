package capture

import "fmt"

const counterName = "i"

// MaxIterations is the largest iteration count a loop or sequence accepts.
const MaxIterations = 1 << 24

const maxPrealloc = 1 << 16

// Callback is a stored zero-argument function created inside a loop body.
// It reports the value of the counter binding it closed over.
type Callback func() (int, error)

// Step describes one executed iteration of a Loop.
type Step struct {
	Index    int
	Value    int
	Captured bool
}

// Outcome is everything a Loop run produced.
type Outcome struct {
	Discipline Discipline
	// Callbacks holds one callback per guarded iteration, in creation order.
	Callbacks []Callback
	// CapturedAt lists the iteration index each callback was created at.
	CapturedAt []int
	// Sequence is the counter value observed by each executed body.
	Sequence []int
	// Final is the counter as seen from the enclosing scope after the loop.
	// FinalVisible is false when the counter did not outlive the loop.
	Final        int
	FinalVisible bool
}

// Last returns the most recently created callback, or a callback that
// fails with ErrNoCapture when the guard never held.
func (o *Outcome) Last() Callback {
	if len(o.Callbacks) == 0 {
		return noCapture
	}
	return o.Callbacks[len(o.Callbacks)-1]
}

// Loop counts from 0 to Iterations-1 and stores a callback on every
// iteration for which Guard holds.
type Loop struct {
	Discipline Discipline
	Iterations int
	Guard      func(index int) bool
	// StepQuota bounds the number of executed iterations. Zero means no
	// bound.
	StepQuota int
	Trace     func(Step)
}

// AtIndex guards the single iteration whose counter equals index.
func AtIndex(index int) func(int) bool {
	return func(i int) bool { return i == index }
}

// Every guards all iterations.
func Every(int) bool { return true }

func (l *Loop) validate() error {
	if !l.Discipline.valid() {
		return invalidArgument("discipline", int(l.Discipline), "unknown discipline")
	}
	if err := checkIterations(l.Iterations); err != nil {
		return err
	}
	if l.StepQuota < 0 {
		return invalidArgument("step_quota", l.StepQuota, "must not be negative")
	}
	return nil
}

// Exec runs the loop. Under Shared the counter lives in the enclosing
// scope and is written in place, so every callback reads its final value.
// Under PerIteration the loop scope is cloned before each increment, leaving
// the previous iteration's binding frozen for whichever callbacks hold it.
func (l *Loop) Exec() (*Outcome, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	enclosing := newEnv(nil)
	scope := enclosing
	if l.Discipline == PerIteration {
		scope = newEnv(enclosing)
	}
	scope.Define(counterName, 0)

	out := &Outcome{
		Discipline: l.Discipline,
		Sequence:   make([]int, 0, min(l.Iterations, maxPrealloc)),
	}
	steps := 0
	for {
		i, _ := scope.Get(counterName)
		if i >= l.Iterations {
			break
		}
		steps++
		if l.StepQuota > 0 && steps > l.StepQuota {
			return nil, fmt.Errorf("%w (limit %d)", ErrStepQuotaExceeded, l.StepQuota)
		}

		out.Sequence = append(out.Sequence, i)
		captured := l.Guard != nil && l.Guard(i)
		if captured {
			out.Callbacks = append(out.Callbacks, readBinding(scope, counterName))
			out.CapturedAt = append(out.CapturedAt, i)
		}
		if l.Trace != nil {
			l.Trace(Step{Index: len(out.Sequence) - 1, Value: i, Captured: captured})
		}

		if l.Discipline == PerIteration {
			scope = scope.CloneShallow()
		}
		scope.Assign(counterName, i+1)
	}

	out.Final, out.FinalVisible = enclosing.Get(counterName)
	return out, nil
}

// Run executes the loop and returns the last stored callback. A later
// capture overwrites an earlier one the same way reassigning a variable
// inside the loop body would.
func (l *Loop) Run() (Callback, error) {
	out, err := l.Exec()
	if err != nil {
		return nil, err
	}
	return out.Last(), nil
}

// RunLoop counts to iterations and returns the callback created when the
// counter equaled captureAt.
func RunLoop(discipline Discipline, iterations, captureAt int) (Callback, error) {
	if err := CheckCaptureIndex(iterations, captureAt); err != nil {
		return nil, err
	}
	loop := Loop{
		Discipline: discipline,
		Iterations: iterations,
		Guard:      AtIndex(captureAt),
	}
	return loop.Run()
}

// CheckCaptureIndex reports whether captureAt names an iteration of a loop
// running iterations times.
func CheckCaptureIndex(iterations, captureAt int) error {
	if err := checkIterations(iterations); err != nil {
		return err
	}
	if captureAt < 0 || captureAt >= iterations {
		return invalidArgument("capture_at", captureAt, "must be in [0, %d)", iterations)
	}
	return nil
}

// CollectSequence returns 0, 1, ..., iterations-1. Counts above
// MaxIterations are rejected.
func CollectSequence(iterations int) ([]int, error) {
	if err := checkIterations(iterations); err != nil {
		return nil, err
	}
	seq := make([]int, 0, min(iterations, maxPrealloc))
	for i := 0; i < iterations; i++ {
		seq = append(seq, i)
	}
	return seq, nil
}

func checkIterations(iterations int) error {
	if iterations < 0 {
		return invalidArgument("iterations", iterations, "must not be negative")
	}
	if iterations > MaxIterations {
		return invalidArgument("iterations", iterations, "must not exceed %d", MaxIterations)
	}
	return nil
}

func readBinding(env *Env, name string) Callback {
	return func() (int, error) {
		val, ok := env.Get(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s is not bound", ErrNoCapture, name)
		}
		return val, nil
	}
}

func noCapture() (int, error) {
	return 0, ErrNoCapture
}
