// Package rpcserver implements Server, the process-wide RPC listener
// lifecycle of spec.md §4.7: a single-shot Init -> Running -> Finished
// state machine shared by every plugin instance in the process.
package rpcserver

import (
	"context"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/deeedob/clap-rci/errors"
	"github.com/deeedob/clap-rci/logger"
)

type state uint8

const (
	stateInit state = iota
	stateRunning
	stateFinished
)

// ServiceRegistrar is implemented by whatever registers RPC handlers
// against the underlying *grpc.Server (package service's PluginService,
// via rpc.RegisterPluginServiceServer).
type ServiceRegistrar func(*grpc.Server)

// Server owns the process-wide gRPC listener. Multiple plugin instances
// share one Server. It does not start itself when an instance is
// created or a client connects: whoever embeds it calls Start (the demo
// host does so once at startup), and Stop shuts the listener down.
type Server struct {
	register ServiceRegistrar

	mu      sync.Mutex
	st      state
	lis     net.Listener
	grpcSrv *grpc.Server
	group   *errgroup.Group
	cancel  context.CancelFunc

	log *zap.SugaredLogger
}

// New builds a Server that registers its RPC handlers via register once
// Start succeeds in binding a listener.
func New(register ServiceRegistrar) *Server {
	return &Server{
		register: register,
		log:      logger.With("component", "rpcserver"),
	}
}

// Start binds a listener on addr (port 0 lets the OS pick), registers
// the plugin service, and begins serving in the background. Returns an
// error if the server is not in Init state or if the bind fails.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != stateInit {
		return errors.Newf("rpcserver: Start called outside Init state")
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "rpcserver: listen on %s", addr)
	}

	grpcSrv := grpc.NewServer()
	s.register(grpcSrv)

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return grpcSrv.Serve(lis)
	})
	group.Go(func() error {
		<-gctx.Done()
		grpcSrv.GracefulStop()
		return nil
	})

	s.lis = lis
	s.grpcSrv = grpcSrv
	s.group = group
	s.cancel = cancel
	s.st = stateRunning

	s.log.Infow("rpc server started", "address", lis.Addr().String())
	return nil
}

// Stop initiates transport shutdown, draining outstanding sessions via
// GracefulStop, and transitions to Finished. No-op if not Running.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.st != stateRunning {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	group := s.group
	s.mu.Unlock()

	cancel()
	err := group.Wait()

	s.mu.Lock()
	s.st = stateFinished
	s.mu.Unlock()

	s.log.Info("rpc server stopped")
	if err != nil {
		return errors.Wrap(err, "rpcserver: stop")
	}
	return nil
}

// Reset returns a Finished server to Init, allowed only in Finished
// state, per spec.md §4.7.
func (s *Server) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != stateFinished {
		return errors.Newf("rpcserver: Reset called outside Finished state")
	}
	s.lis = nil
	s.grpcSrv = nil
	s.group = nil
	s.cancel = nil
	s.st = stateInit
	return nil
}

// Port returns the bound listener's port, or 0 before the first Start
// and after Reset. After Stop it still reports the last bound port.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return 0
	}
	if tcpAddr, ok := s.lis.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

// Address returns the bound listener's address, or "" before the first
// Start and after Reset. After Stop it still reports the last address.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}
