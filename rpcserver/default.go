package rpcserver

import "sync"

var (
	defaultServer *Server
	defaultOnce   sync.Once
)

// InitDefault binds the process-wide Server singleton to register. Only
// the first call has any effect; meant to be called once, early, by
// whatever wires package service's PluginService into the listener.
func InitDefault(register ServiceRegistrar) *Server {
	defaultOnce.Do(func() {
		defaultServer = New(register)
	})
	return defaultServer
}

// Default returns the process-wide Server singleton. Panics if
// InitDefault has not been called yet.
func Default() *Server {
	if defaultServer == nil {
		panic("rpcserver: Default called before InitDefault")
	}
	return defaultServer
}
