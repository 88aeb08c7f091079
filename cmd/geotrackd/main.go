package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"codeberg.org/mutker/geotrackd/internal/api"
	"codeberg.org/mutker/geotrackd/internal/collector"
	"codeberg.org/mutker/geotrackd/internal/config"
	"codeberg.org/mutker/geotrackd/internal/controller"
	"codeberg.org/mutker/geotrackd/internal/errors"
	"codeberg.org/mutker/geotrackd/internal/logger"
	"codeberg.org/mutker/geotrackd/internal/model"
	"codeberg.org/mutker/geotrackd/internal/pid"
	"codeberg.org/mutker/geotrackd/internal/probe"
	"codeberg.org/mutker/geotrackd/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var (
	cfg *config.Config

	showToken      = pflag.Bool("show-token", false, "Print the API token and exit")
	resetToken     = pflag.Bool("reset-token", false, "Replace the API token, print the new one and exit")
	purgeOlderThan = pflag.Duration("purge-older-than", 0, "Delete samples older than the given duration and exit")
	wipe           = pflag.Bool("wipe", false, "Delete all stored samples and credentials, then exit")
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	store, err := storage.Open(storage.Config{Path: cfg.Database})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	if handled := runMaintenance(store); handled {
		return
	}

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	deviceID, err := store.DeviceID(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve device id")
	}

	deviceProbe := probe.New(probe.Config{
		Gpsd:         cfg.Gpsd,
		Fallback:     cfg.Fallback,
		FallbackLat:  cfg.FallbackLat,
		FallbackLon:  cfg.FallbackLon,
		Connectivity: cfg.Connectivity,
		DataDir:      filepath.Dir(cfg.Database),
	})

	loop := collector.New(deviceProbe, store, time.Duration(cfg.Interval)*time.Second, deviceID)
	server := api.NewServer(cfg.Listen, store, deviceProbe)
	ctrl := controller.New(store, loop, server, time.Duration(cfg.TickInterval)*time.Minute)

	if err := start(ctx, ctrl); err != nil {
		logger.Fatal().Err(err).Msg("failed to start collection")
	}

	<-ctx.Done()
	shutdown(ctrl)
}

// start resumes whichever mode was active on last exit, falling back to
// the configured mode on a fresh state. An API bind failure degrades the
// agent instead of stopping it.
func start(ctx context.Context, ctrl *controller.Controller) error {
	state, err := ctrl.Status(ctx)
	if err != nil {
		return err
	}

	if state.ContinuousRunning || state.ScheduleActive {
		err = ctrl.Resume(ctx)
	} else {
		switch model.Mode(cfg.Mode) {
		case model.ModeScheduled:
			var window model.ScheduleConfig
			window, err = cfg.Schedule()
			if err != nil {
				return err
			}
			err = ctrl.StartSchedule(ctx, window)
		default:
			err = ctrl.StartContinuous(ctx)
		}
	}

	if errors.HasCode(err, api.ErrPortInUse) {
		logger.Warn().Err(err).Msg("running without API server")
		return nil
	}

	return err
}

func shutdown(ctrl *controller.Controller) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	state, err := ctrl.Status(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read mode state during shutdown")
		return
	}

	if state.ContinuousRunning {
		if err := ctrl.StopContinuous(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop continuous collection")
		}
	}
	if state.ScheduleActive {
		if err := ctrl.StopSchedule(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop schedule")
		}
	}

	logger.Info().Msg("Exiting...")
}

// runMaintenance handles the one-shot administrative flags. It reports
// whether one was invoked.
func runMaintenance(store storage.Store) bool {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	switch {
	case *showToken:
		token, err := store.GetOrCreateToken(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to read token")
		}
		fmt.Println(token)
	case *resetToken:
		token, err := store.ResetToken(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to reset token")
		}
		fmt.Println(token)
	case *purgeOlderThan > 0:
		cutoff := time.Now().Add(-*purgeOlderThan).UnixMilli()
		deleted, err := store.DeleteSamplesBefore(ctx, cutoff)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to purge samples")
		}
		fmt.Printf("deleted %d samples\n", deleted)
	case *wipe:
		if err := store.DeleteAllSamples(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to wipe samples")
		}
		if err := store.DeleteToken(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to wipe credentials")
		}
		fmt.Println("all samples and credentials deleted")
	default:
		return false
	}

	return true
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
