package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"energy_simulator/internal/action"
	"energy_simulator/internal/api"
	"energy_simulator/internal/config"
	"energy_simulator/internal/influx"
	"energy_simulator/internal/metrics"
	"energy_simulator/internal/mqtt"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/store"
	"energy_simulator/internal/util"
	"energy_simulator/internal/ws"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var (
		frontendDir string
		paused      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation with HTTP, WebSocket and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, frontendDir, paused)
		},
	}

	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Duration("interval", 0, "tick interval")
	cmd.Flags().Uint64("seed", 0, "seed for the consumption jitter, 0 for random")
	cmd.Flags().StringVar(&frontendDir, "frontend-dir", "frontend/build", "directory containing frontend build")
	cmd.Flags().BoolVar(&paused, "paused", false, "do not start ticking until requested")

	return cmd
}

// populate registers the household devices and plugs in the cars that start connected.
func populate(ctx context.Context, s *store.Store, exec *action.Executor, h config.Household) error {
	for _, d := range h.Devices {
		if err := s.Add(d); err != nil {
			return fmt.Errorf("adding %s: %w", d.DeviceName(), err)
		}
	}

	for _, id := range h.PluggedIn {
		if err := exec.Execute(ctx, action.Action{
			DeviceID: id,
			Type:     action.TypePluggedIn,
			Value:    json.RawMessage("true"),
		}); err != nil {
			return fmt.Errorf("plugging in %s: %w", id, err)
		}
	}

	return nil
}

func serve(ctx context.Context, cfg config.Config, frontendDir string, paused bool) error {
	log := util.NewLogger("main")

	loc, err := cfg.Location.TimeLocation()
	if err != nil {
		return err
	}

	household, err := cfg.Household()
	if err != nil {
		return err
	}

	clk := clock.New()
	hub := ws.NewHub()
	collector := metrics.New()
	callbacks := simulator.Callbacks{ws.NewBridge(hub), collector}

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		callbacks = append(callbacks, mqtt.NewPublisher(client, cfg.MQTT.Topic))
	}

	if cfg.Influx.URL != "" {
		db, closeDB := influx.New(cfg.Influx, clk)
		defer closeDB()
		callbacks = append(callbacks, db)
	}

	s := store.New()
	exec := action.NewExecutor(s, callbacks)
	if err := populate(ctx, s, exec, household); err != nil {
		return err
	}
	log.INFO.Printf("%d devices at %.4f,%.4f (%s)", s.Count(), cfg.Location.Latitude, cfg.Location.Longitude, loc)

	engine := simulator.New(s, callbacks, clk, simulator.Config{
		Interval:  cfg.Interval,
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
		Location:  loc,
		Seed:      cfg.Seed,
	})

	srv := api.New(s, engine, exec, api.Options{
		Latitude:       cfg.Location.Latitude,
		Longitude:      cfg.Location.Longitude,
		Location:       loc,
		DiscoveryCount: cfg.Discovery.ResultCount,
		WebSocket:      ws.NewHandler(hub, engine, s, exec),
		Metrics:        collector.Handler(),
		FrontendDir:    frontendDir,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.INFO.Printf("listening on %s", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		engine.Pause()
		// hijacked websocket connections are not closed by Shutdown
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if !paused {
		engine.Start()
	}

	return g.Wait()
}
