package exam

// StepTracker drives one experiment section. Implementations wrap
// whatever actually runs the experiment and report step completion
// back through the callback.
type StepTracker interface {
	// ExperimentName identifies the experiment this tracker runs.
	ExperimentName() string

	// Start begins tracking the given required steps. onStep is
	// invoked as steps complete (or un-complete); it is safe to call
	// from any goroutine, but must not be invoked before Start
	// returns.
	Start(requiredSteps []string, onStep func(stepID string, completed bool)) error

	// Stop halts tracking. No onStep calls may be delivered after
	// Stop returns.
	Stop()
}
