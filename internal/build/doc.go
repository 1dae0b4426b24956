// Package build runs site builds.
//
// An Orchestrator drives one locale build through a fixed state machine:
//
//	Idle → Validating → Merging → ResolvingPlugins → Assembling → Emitting → Done
//
// Any non-terminal state may move to Failed. A failure carries an *Error with
// the stage that failed and the complete issue list of that stage; later
// stages never run. Only Emitting writes to disk, and it writes into a
// staging directory that is promoted atomically once every write finished.
//
// BuildLocales runs one isolated build per configured locale in parallel and
// promotes their combined output together.
//
// Metrics, build history and build events are optional observers. Failures to
// record are logged and never fail a build.
package build
