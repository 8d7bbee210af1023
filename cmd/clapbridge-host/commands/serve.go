package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/deeedob/clap-rci/cmd/clapbridge-host/config"
	"github.com/deeedob/clap-rci/coreplugin"
	"github.com/deeedob/clap-rci/descriptor"
	"github.com/deeedob/clap-rci/errors"
	"github.com/deeedob/clap-rci/logger"
	"github.com/deeedob/clap-rci/registry"
	"github.com/deeedob/clap-rci/rpc"
	"github.com/deeedob/clap-rci/rpcserver"
	"github.com/deeedob/clap-rci/service"
	"github.com/deeedob/clap-rci/wire"
	"github.com/deeedob/clap-rci/worker"
)

// demoKindID names the single synthetic plugin kind this host exposes;
// a real host would register one kind per .clap bundle it discovered
// under its plugin path instead.
const demoKindID = "com.clap-rci.demo"

// ServeCmd starts the demo host: it registers one synthetic plugin
// kind, binds the RPC listener, and drives a ticker standing in for a
// DAW's audio callback so a client can connect and watch events flow.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the clapbridge demo host",
	Long:  "Registers a synthetic plugin instance, serves it over the plugin-service RPC, and drives it with a ticker standing in for a host's audio callback.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logger.Initialize(false); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	reg := registry.Default()
	w := worker.InitDefault(instanceSource{reg})
	rpcserver.InitDefault(func(s *grpc.Server) {
		rpc.RegisterPluginServiceServer(s, service.New(reg, w))
	})

	plugin, err := registerDemoKind(reg, w)
	if err != nil {
		return errors.Wrap(err, "failed to register demo plugin kind")
	}

	reg.Init(cfg.Registry.PluginPath)

	if err := rpcserver.Default().Start(cfg.RPC.BindAddress); err != nil {
		return errors.Wrap(err, "failed to start rpc server")
	}

	printStartupBanner(rpcserver.Default().Address(), cfg.Registry.PluginPath, cfg.Registry.RingCapacity)

	if err := plugin.Activate(48000, 64, 512); err != nil {
		return errors.Wrap(err, "failed to activate demo plugin")
	}
	if err := plugin.StartProcessing(); err != nil {
		return errors.Wrap(err, "failed to start processing demo plugin")
	}

	tick := time.Duration(cfg.Registry.TickIntervalMS) * time.Millisecond
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	stopTicker := make(chan struct{})
	go driveDemoHostLoop(plugin, tick, stopTicker)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	pterm.Info.Println("\nshutting down...")
	close(stopTicker)

	plugin.StopProcessing()
	plugin.Deactivate()
	plugin.Destroy()
	plugin.Release()

	if err := rpcserver.Default().Stop(); err != nil {
		return errors.Wrap(err, "failed to stop rpc server")
	}

	pterm.Success.Println("clapbridge-host stopped cleanly")
	return nil
}

// registerDemoKind registers a single descriptor/factory pair and
// creates the one instance this demo host serves, wiring its
// notify-queue-ready callback to the shared worker and its onRemove
// callback to the registry's instance table.
func registerDemoKind(reg *registry.Registry, w *worker.Worker) (*coreplugin.CorePlugin, error) {
	desc := descriptor.NewBuilder(demoKindID).
		WithName("ClapBridge Demo Instrument").
		WithVendor("clap-rci").
		WithVersion("0.1.0").
		Build()

	var plugin *coreplugin.CorePlugin
	factory := func(host registry.HostHandle) (registry.Instance, error) {
		plugin = coreplugin.New(demoKindID, desc, host, coreplugin.Hooks{}, func() { w.TryNotify() }, func(removed *coreplugin.CorePlugin) {
			reg.Instances().Destroy(demoKindID, removed)
		})
		reg.Instances().Emplace(demoKindID, plugin)
		return plugin, nil
	}

	if err := reg.RegisterKind(desc, factory); err != nil {
		return nil, err
	}
	if _, err := reg.Create(nil, demoKindID); err != nil {
		return nil, err
	}
	return plugin, nil
}

// driveDemoHostLoop stands in for a DAW's audio callback: every tick
// it alternates a NoteOn/NoteOff pair through the instance, exercising
// the full path from process() to the queue-draining worker to every
// attached client.
func driveDemoHostLoop(plugin *coreplugin.CorePlugin, tick time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	const key = int16(60)
	noteOn := true
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			kind := wire.NoteOff
			if noteOn {
				kind = wire.NoteOn
			}
			noteOn = !noteOn

			_ = plugin.Process(&coreplugin.ProcessBlock{
				Notes: []wire.NoteEvent{{Kind: kind, NoteID: 1, Key: key, Velocity: 0.8}},
			})
		}
	}
}

// instanceSource adapts registry.Instances into worker.InstanceSource,
// asserting each registry.Instance to worker.Pumpable (coreplugin.CorePlugin
// satisfies it structurally; non-Pumpable instances, if any, are skipped).
type instanceSource struct {
	reg *registry.Registry
}

func (s instanceSource) All() []worker.Pumpable {
	insts := s.reg.Instances().All()
	out := make([]worker.Pumpable, 0, len(insts))
	for _, inst := range insts {
		if p, ok := inst.(worker.Pumpable); ok {
			out = append(out, p)
		}
	}
	return out
}
