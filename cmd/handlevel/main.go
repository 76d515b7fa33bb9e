package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/handlevel/internal/actuator"
	"github.com/ayusman/handlevel/internal/app"
	"github.com/ayusman/handlevel/internal/capture"
	"github.com/ayusman/handlevel/internal/control"
	"github.com/ayusman/handlevel/internal/detector"
	"github.com/ayusman/handlevel/internal/plugin"
	"github.com/ayusman/handlevel/internal/server"
	"github.com/ayusman/handlevel/internal/session"
	"github.com/ayusman/handlevel/internal/store"
	"github.com/ayusman/handlevel/internal/tray"
)

const (
	sinkGain   = "gain"
	sinkSystem = "system"

	pluginTimeout = 5 * time.Second
)

type options struct {
	addr         string
	camera       int
	dataDir      string
	pluginDir    string
	calibration  string
	sink         string
	mockDetector bool
	noTray       bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("handlevel", flag.ContinueOnError)
	fs.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	fs.IntVar(&opts.camera, "camera", 0, "camera device ID")
	fs.StringVar(&opts.dataDir, "data-dir", "", "data directory (default ~/.handlevel)")
	fs.StringVar(&opts.pluginDir, "plugins", "plugins", "plugin directory")
	fs.StringVar(&opts.calibration, "calibration", "", "calibration profile to activate at startup")
	fs.StringVar(&opts.sink, "sink", sinkGain, "level sink: gain or system")
	fs.BoolVar(&opts.mockDetector, "mock-detector", false, "use a detector that never sees a hand")
	fs.BoolVar(&opts.noTray, "no-tray", false, "run without the system tray")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.sink != sinkGain && opts.sink != sinkSystem {
		return opts, fmt.Errorf("unknown sink %q", opts.sink)
	}
	if opts.dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return opts, fmt.Errorf("failed to get home directory: %w", err)
		}
		opts.dataDir = filepath.Join(homeDir, ".handlevel")
	}
	return opts, nil
}

func main() {
	fmt.Println("handlevel - hand gesture level control")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("handlevel failed: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := os.MkdirAll(opts.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(opts.dataDir, "handlevel.db"))
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	if opts.calibration != "" {
		if _, err := st.ActivateByName(opts.calibration); err != nil {
			return fmt.Errorf("failed to activate calibration %q: %w", opts.calibration, err)
		}
	}
	cal, err := st.ActiveCalibration()
	if err != nil {
		return fmt.Errorf("failed to load calibration: %w", err)
	}
	log.Printf("Using calibration %q (%d ms, step %.3f)", cal.Name, cal.TickMs, cal.Step)

	config := cal.SessionConfig()
	sink, loopOpts, closeSink, err := buildSink(ctx, opts, config.Control.Default)
	if err != nil {
		return err
	}
	defer closeSink()

	sess := session.New(config, sink, loopOpts...)
	defer sess.Close()

	appConfig := app.Config{
		CameraID:    opts.camera,
		IdleTimeout: capture.DefaultIdleTimeout,
	}
	if opts.mockDetector {
		appConfig.Detector = detector.NewMockDetector()
	}
	application := app.New(appConfig, sess)
	if err := application.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	defer application.Stop()

	webDir := findWebDir(opts.dataDir)
	if webDir != "" {
		log.Printf("Serving static files from: %s", webDir)
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Session:   sess,
		Preview:   application.Preview(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s", opts.addr)
		return srv.ListenAndServe(gctx, opts.addr)
	})

	if opts.noTray {
		return g.Wait()
	}

	t := tray.New(sess)
	t.OnSettings(func() { openBrowser(settingsURL(opts.addr)) })
	t.OnQuit(cancel)
	g.Go(func() error {
		<-gctx.Done()
		t.Quit()
		return nil
	})

	// The tray owns the main goroutine until it quits.
	t.Run()
	cancel()
	return g.Wait()
}

// buildSink returns the level sink selected by opts. The software gain is
// always present and starts at level. The system sink adds the volume plugin
// and returns a loop option that starts the loop at the current system level;
// the loop still resets to level.
func buildSink(ctx context.Context, opts options, level float64) (actuator.Sink, []control.Option, func(), error) {
	gain := actuator.NewGain(level)
	if opts.sink != sinkSystem {
		return gain, nil, func() {}, nil
	}

	manager := plugin.NewManager(opts.pluginDir)
	if err := manager.Discover(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	p, err := manager.FindAction(actuator.SetVolumeAction)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("no plugin in %s supports %s: %w", opts.pluginDir, actuator.SetVolumeAction, err)
	}
	log.Printf("Driving system volume through plugin %s v%s", p.Manifest.Name, p.Manifest.Version)

	executor := plugin.NewExecutor(pluginTimeout)
	var loopOpts []control.Option
	if current, err := actuator.ReadLevel(ctx, executor, p); err == nil {
		gain.SetLevel(current)
		loopOpts = append(loopOpts, control.WithInitial(current))
	} else {
		log.Printf("Could not read system level, starting at %.2f: %v", level, err)
	}

	ps := actuator.NewPluginSink(executor, p)
	return actuator.Tee(gain, ps), loopOpts, func() { ps.Close() }, nil
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	if err := exec.Command(name, url).Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and dataDir/web, and returns the
// first existing directory or an empty string.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
