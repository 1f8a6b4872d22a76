package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hypermesh-network/assetmesh/core"
	"github.com/hypermesh-network/assetmesh/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{Use: "assetmeshd"}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// statusCmd assembles a mesh from config and renders its initial statistics
// snapshot as YAML. With no persistence layer, this is a config/assembly
// smoke check rather than a live query against a running node.
func statusCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "render a freshly assembled mesh's statistics snapshot as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env)
			if err != nil {
				return err
			}
			cpu, gpu, mem, storage, network, container := core.BaselineThresholds(
				cfg.Consensus.BaselineStake, cfg.Consensus.BaselineWorkDifficulty)
			mesh, err := core.NewMesh(core.MeshConfig{
				NodeID:              cfg.Node.ID,
				MinTrust:            cfg.Node.MinTrust,
				CPUThresholds:       cpu,
				GPUThresholds:       gpu,
				MemoryThresholds:    mem,
				StorageThresholds:   storage,
				NetworkThresholds:   network,
				ContainerThresholds: container,
				NetworkTotalBps:     10_000_000_000,
				ContainerMaxConcurrent: 64,
				ProxyPortRanges: map[core.AssetKind][]core.PortRange{
					core.KindCPU: {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
				},
			})
			if err != nil {
				return err
			}
			out, err := core.StatisticsYAML(mesh.Manager.Statistics())
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay to merge onto default config")
	return cmd
}

func serveCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start a node's resource-asset mesh",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(env)
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "environment overlay to merge onto default config")
	return cmd
}

func runServe(env string) {
	logger := logrus.New()

	cfg, err := config.Load(env)
	if err != nil {
		logger.WithError(err).Warn("falling back to built-in defaults, config load failed")
		cfg = &config.Config{}
		cfg.Node.ID = "node-0"
		cfg.Node.MinTrust = 0.5
		cfg.Consensus.BaselineStake = 1000
		cfg.Consensus.BaselineWorkDifficulty = 100
		cfg.Proxy.PortRangeLow = 20000
		cfg.Proxy.PortRangeHigh = 20999
	}
	if lvl, parseErr := logrus.ParseLevel(cfg.Logging.Level); parseErr == nil {
		logger.SetLevel(lvl)
	}

	cpu, gpu, mem, storage, network, container := core.BaselineThresholds(
		cfg.Consensus.BaselineStake, cfg.Consensus.BaselineWorkDifficulty)

	registry := prometheus.NewRegistry()

	meshCfg := core.MeshConfig{
		NodeID:              cfg.Node.ID,
		MinTrust:            cfg.Node.MinTrust,
		CPUThresholds:       cpu,
		GPUThresholds:       gpu,
		MemoryThresholds:    mem,
		StorageThresholds:   storage,
		NetworkThresholds:   network,
		ContainerThresholds: container,
		NetworkTotalBps:     10_000_000_000,
		ContainerMaxConcurrent: 64,
		ProxyPortRanges: map[core.AssetKind][]core.PortRange{
			core.KindCPU:       {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
			core.KindGPU:       {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
			core.KindMemory:    {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
			core.KindStorage:   {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
			core.KindNetwork:   {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
			core.KindContainer: {{Low: cfg.Proxy.PortRangeLow, High: cfg.Proxy.PortRangeHigh}},
		},
		MetricsRegistry: registry,
		Logger:          logger,
	}

	mesh, err := core.NewMesh(meshCfg)
	if err != nil {
		logger.WithError(err).Fatal("mesh construction failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mesh.StartCleanupLoop(ctx, time.Minute)
	defer mesh.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/proxy/", http.StripPrefix("/proxy", mesh.Forwarder.Router()))

	addr := cfg.Metrics.ListenAddr
	if addr == "" {
		addr = ":9600"
	}
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.WithField("addr", addr).Info("serving metrics and proxy endpoints")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server exited")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
