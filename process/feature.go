package process

// Feature is a plug-in hook object a caller attaches to a Supervisor run.
// It carries no required methods: the supervisor checks, via type
// assertion, whether a Feature implements ProcessHook and/or TimeHook and
// calls whichever hooks it exposes. This avoids downcasting through a
// closed set of concrete feature types.
type Feature interface{}

// ProcessHook is implemented by features that want the live pid of the
// child for the duration of one run (FeatureProcess).
type ProcessHook interface {
	OnLaunch(pid int)
	OnExit()
}
