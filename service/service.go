// Package service implements PluginService, the RPC surface of
// spec.md §4.9: EventStream opens a bidirectional session against a
// plugin_id advertised in request metadata, and GetPluginInstances
// lists every live instance for discovery.
package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/deeedob/clap-rci/coreplugin"
	"github.com/deeedob/clap-rci/logger"
	"github.com/deeedob/clap-rci/reactor"
	"github.com/deeedob/clap-rci/registry"
	"github.com/deeedob/clap-rci/rpc"
	"github.com/deeedob/clap-rci/wire"
	"github.com/deeedob/clap-rci/worker"
)

// pluginIDMetadataKey is the request-metadata key a connecting client
// must supply, whose value is the decimal string of an instance_id.
const pluginIDMetadataKey = "plugin_id"

// PluginService implements rpc.PluginServiceServer.
type PluginService struct {
	registry *registry.Registry
	worker   *worker.Worker
	log      *zap.SugaredLogger
}

// New builds a PluginService backed by reg and w.
func New(reg *registry.Registry, w *worker.Worker) *PluginService {
	return &PluginService{
		registry: reg,
		worker:   w,
		log:      logger.With("component", "service"),
	}
}

var _ rpc.PluginServiceServer = (*PluginService)(nil)

// EventStream implements the bidirectional-streaming RPC of spec.md
// §4.9: it resolves plugin_id to a live instance, attaches a new
// EventStreamReactor to it, and runs the session to completion.
func (s *PluginService) EventStream(stream rpc.EventStreamServer) error {
	rawID, ok := firstMetadataValue(stream.Context(), pluginIDMetadataKey)
	if !ok || rawID == "" {
		s.sendDiscoveryMetadata(stream)
		return status.Error(codes.Unauthenticated, "no plugin_id supplied in request metadata")
	}

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return status.Error(codes.Unauthenticated, "malformed plugin_id")
	}

	inst, ok := s.registry.Instances().Instance(id)
	if !ok {
		return status.Error(codes.Unauthenticated, "couldn't find plugin")
	}

	plugin, ok := inst.(*coreplugin.CorePlugin)
	if !ok {
		return status.Error(codes.Internal, "instance is not event-stream capable")
	}

	r := reactor.New(stream.Context(), plugin, stream, func(done *reactor.Reactor) {
		plugin.DetachClient(done)
		s.worker.OnClientDisconnected()
	})

	plugin.AttachClient(r)
	s.worker.OnClientConnected()

	s.log.Debugw("event stream opened", "plugin_id", id)
	return r.Run()
}

// sendDiscoveryMetadata answers a connection with no plugin_id by
// sending initial metadata listing every live instance (kind-id ->
// instance-id) before the caller finishes the RPC as UNAUTHENTICATED,
// per spec.md §4.9.
func (s *PluginService) sendDiscoveryMetadata(stream rpc.EventStreamServer) {
	kindToID := s.registry.Instances().KindToInstanceID()
	if len(kindToID) == 0 {
		return
	}
	md := metadata.MD{}
	for kindID, instID := range kindToID {
		md.Append(kindID, strconv.FormatUint(instID, 10))
	}
	if err := stream.SendHeader(md); err != nil {
		s.log.Debugw("failed to send discovery metadata", "error", err)
	}
}

// GetPluginInstances implements the unary RPC of spec.md §4.9.
func (s *PluginService) GetPluginInstances(_ context.Context, _ *wire.Empty) (*wire.PluginInstances, error) {
	return &wire.PluginInstances{KindToInstance: s.registry.Instances().KindToInstanceID()}, nil
}

func firstMetadataValue(ctx context.Context, key string) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	vals := md.Get(key)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
