package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/hammamikhairi/ottobar/internal/config"
	"github.com/hammamikhairi/ottobar/internal/dispense"
	"github.com/hammamikhairi/ottobar/internal/display"
	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/engine"
	"github.com/hammamikhairi/ottobar/internal/gateway"
	"github.com/hammamikhairi/ottobar/internal/hardware"
	"github.com/hammamikhairi/ottobar/internal/inventory"
	"github.com/hammamikhairi/ottobar/internal/logger"
	"github.com/hammamikhairi/ottobar/internal/metrics"
	"github.com/hammamikhairi/ottobar/internal/notify"
	"github.com/hammamikhairi/ottobar/internal/order"
	"github.com/hammamikhairi/ottobar/internal/recipe"
	"github.com/hammamikhairi/ottobar/internal/stats"
	"github.com/hammamikhairi/ottobar/internal/storage"
)

type runOptions struct {
	*rootOptions
	headless bool
	verbose  bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the dispenser",
		Long: `Run the dispenser with the simulated scale and pumps.

The operator terminal shows the touch screen. Keys stand in for touches,
the space bar places or removes the cup, and J jams the pumps.

Example:
  ottobar run
  ottobar run --headless --config /etc/ottobar.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts.rootOptions)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Log.Level = "verbose"
			}
			return runAppliance(cmd.Context(), cfg, opts.headless)
		},
	}

	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run without the operator terminal (sync and metrics only)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose/debug logging")
	return cmd
}

func runAppliance(parent context.Context, cfg config.Config, headless bool) error {
	if parent == nil {
		parent = context.Background()
	}
	logOut, closeLog := openLog(cfg.Log.File)
	defer closeLog()

	// Third-party libraries log through the standard logger.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logger.ParseLevel(cfg.Log.Level), logOut)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg.Storage.Path, log.Named("storage"))
	if err != nil {
		return err
	}
	defer closeRepo()

	recs, err := storage.LoadWithRetry(ctx, repo, cfg.Storage.LoadRetry, log.Named("storage"))
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}

	saver := storage.NewSaver(repo, log.Named("saver"), storage.WithWriteTimeout(cfg.Storage.SaveTimeout))
	saver.Start(ctx)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Storage.SaveTimeout)
		defer stopCancel()
		if err := saver.Stop(stopCtx); err != nil {
			log.Error("final save: %v", err)
		}
	}()

	store := inventory.New(recs.Catalog, recs.Stock, saver, log.Named("inventory"),
		inventory.WithSafetyMargin(cfg.Inventory.SafetyMargin))
	tracker := stats.NewTracker(recs.Stats, saver, log.Named("stats"))

	rigOpts := []hardware.Option{hardware.WithFlowRate(cfg.Rig.FlowRate)}
	if cfg.Rig.Noise > 0 {
		rigOpts = append(rigOpts, hardware.WithNoise(cfg.Rig.Noise, uint64(time.Now().UnixNano())))
	}
	rig := hardware.NewRig(clock.RealClock{}, log.Named("rig"), rigOpts...)
	ctrl := dispense.NewController(rig, rig, store, log.Named("dispense"),
		dispense.WithConfig(cfg.Dispense.Controller()))
	keypad := display.NewKeypad(cfg.Menu.LongPressSamples)

	// The console prints through the UI once it exists, so lines land
	// above the rendered screen.
	var ui *display.UI
	var printFn notify.PrintFunc
	if !headless {
		printFn = func(format string, a ...any) { ui.Printf(format, a...) }
	}
	notifiers := notify.Tee{notify.NewConsole(log.Named("notify"), printFn)}

	var chime *notify.Chime
	if cfg.Audio.Chime {
		sink, err := notify.NewOtoSink(log.Named("audio"))
		if err != nil {
			log.Error("audio init failed, chime disabled: %v", err)
		} else {
			chime = notify.NewChime(sink, log.Named("chime"), notify.WithVolume(cfg.Audio.Volume))
			notifiers = append(notifiers, chime)
		}
	}

	appOpts := []engine.Option{
		engine.WithLongPressThreshold(cfg.Menu.LongPressSamples),
		engine.WithRandomMax(cfg.Order.RandomMax),
		engine.WithCleanDuration(cfg.Menu.CleanDuration),
		engine.WithSelectorOptions(
			order.WithAdjustStep(cfg.Order.AdjustStep),
			order.WithPerDrinkCap(cfg.Order.PerDrinkCap),
		),
	}

	var transport *gateway.MQTTTransport
	if cfg.MQTT.Broker != "" {
		inbox := gateway.NewInbox(cfg.MQTT.InboxSize, log.Named("inbox"))
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "ottobar-" + uuid.NewString()[:8]
		}
		transport = gateway.NewMQTTTransport(cfg.MQTT.Broker, inbox, log.Named("mqtt"),
			gateway.WithClientID(clientID),
			gateway.WithTopicPrefix(cfg.MQTT.TopicPrefix),
			gateway.WithQoS(cfg.MQTT.QoS),
			gateway.WithReadvertiseDelay(cfg.MQTT.ReadvertiseDelay),
		)
		appOpts = append(appOpts, engine.WithSync(inbox))
	} else {
		log.Info("sync disabled: set mqtt.broker or %s to enable", config.EnvMQTTBroker)
	}

	metrics.Register()
	app := engine.New(store, tracker, ctrl, keypad, notifiers, log.Named("engine"), appOpts...)
	watcher := engine.NewWatcher(app, notifiers, log.Named("watcher"),
		engine.WithWatchInterval(cfg.Watcher.Interval),
		engine.WithLowStockLevel(cfg.Watcher.LowStock),
	)

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	if chime != nil {
		g.Go(func() error { return chime.Run(gctx) })
	}
	if transport != nil {
		g.Go(func() error { return transport.Run(gctx) })
	}
	if cfg.Metrics.Addr != "" {
		serveMetrics(gctx, g, cfg.Metrics.Addr, log.Named("metrics"))
	}

	if headless {
		log.Info("running headless")
	} else {
		ui = display.NewUI(app, keypad, rig)
		fmt.Print(display.RenderBanner(display.TermWidth(), "self-service cocktails"))
		g.Go(func() error {
			// Leaving the terminal stops the appliance.
			defer stop()
			return ui.Run(gctx)
		})
	}

	return g.Wait()
}

// serveMetrics exposes the registry until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		log.Info("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// openLog directs logs to a file so the terminal stays clean. It falls
// back to stderr when the file cannot be opened.
func openLog(path string) (io.Writer, func()) {
	if path == "" || path == "stderr" {
		return os.Stderr, func() {}
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr, func() {}
	}
	return f, func() { f.Close() }
}

// openRepository opens the SQLite database at path, seeding it with the
// starter menu on first boot. config.MemoryDB keeps everything in memory.
func openRepository(ctx context.Context, path string, log *logger.Logger) (domain.Repository, func(), error) {
	catalog, stock := recipe.DefaultCatalog(log), recipe.DefaultStock()
	if path == config.MemoryDB {
		log.Info("using in-memory storage, nothing survives a restart")
		return storage.NewMemoryRepository(catalog, stock, log), func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	repo, err := storage.OpenSQLite(ctx, path, log, storage.WithSeed(catalog, stock))
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Error("closing database: %v", err)
		}
	}, nil
}
