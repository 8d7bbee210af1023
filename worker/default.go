package worker

import "sync"

var (
	defaultWorker *Worker
	defaultOnce   sync.Once
)

// InitDefault binds the process-wide Worker singleton to source. Only
// the first call has any effect; it is meant to be called once, early,
// by whatever wires the registry's instance table into the worker
// (the demo host's serve command does). Safe to call more than once.
func InitDefault(source InstanceSource) *Worker {
	defaultOnce.Do(func() {
		defaultWorker = New(source)
	})
	return defaultWorker
}

// Default returns the process-wide Worker singleton. Panics if
// InitDefault has not been called yet, since a Worker with no instance
// source cannot drain anything.
func Default() *Worker {
	if defaultWorker == nil {
		panic("worker: Default called before InitDefault")
	}
	return defaultWorker
}
