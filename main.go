package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/conf"
	"github.com/svanichkin/camterm/device"
	"github.com/svanichkin/camterm/logs"
	"github.com/svanichkin/camterm/mediactrl"
	"github.com/svanichkin/camterm/snapshot"
	"github.com/svanichkin/camterm/ui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[camterm] %v\n", err)
		if errors.Is(err, conf.ErrUsage) {
			fmt.Fprint(os.Stderr, conf.Usage())
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() (err error) {
	opts, err := conf.ParseCLI()
	if err != nil {
		return err
	}
	if opts.ShowVersion {
		printVersion()
		return nil
	}
	logs.SetVerbose(opts.Verbose)

	logWriter, closeLog, logPath, logErr := initLogSink(opts.ConfigPath)
	if closeLog != nil {
		defer closeLog()
	}
	logOutput := io.Writer(os.Stderr)
	if logWriter != nil {
		logOutput = io.MultiWriter(os.Stderr, logWriter)
	}
	log.SetOutput(logOutput)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if logErr == nil {
		logs.LogV("[camterm] logs: %s", logPath)
	} else {
		fmt.Fprintf(os.Stderr, "[camterm] log file disabled (%v)\n", logErr)
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer appCancel()

	// The device is opened before raw mode so a missing camera is reported
	// on a normal terminal.
	src, err := device.OpenCamera(opts.CameraOptions())
	if err != nil {
		return err
	}

	writer := snapshot.NewWriter(opts.SnapshotDir, opts.SnapshotFormat)
	if err := os.MkdirAll(writer.Dir, 0o755); err != nil {
		src.Close()
		return fmt.Errorf("%w: snapshot dir: %v", snapshot.ErrIO, err)
	}

	term := device.NewTerminal()
	initialMode := opts.Mode
	if !opts.ModeSet {
		initialMode = mediactrl.DefaultMode(device.ColorProfile())
	}
	ctrl := mediactrl.New(initialMode)

	var pipeline *ui.Pipeline
	worker := snapshot.StartWorker(writer, func(res snapshot.Result) {
		if res.Err != nil {
			log.Printf("[snap] %v", res.Err)
		}
		if pipeline != nil {
			pipeline.ReportSnapshot(res)
		}
	})
	defer worker.Stop()

	pipeline, err = ui.NewPipeline(ui.PipelineConfig{
		Source:           src,
		Sink:             term,
		Controller:       ctrl,
		Converter:        codec.NewConverter(opts.ConverterOptions()),
		Snapshots:        worker,
		MaxFPS:           opts.MaxFPS,
		FailureThreshold: opts.FailureThreshold,
		ShowStatus:       opts.ShowStatus,
	})
	if err != nil {
		src.Close()
		return err
	}

	session := ui.NewSession(appCtx, term, src)
	err = session.Run(func(ctx context.Context) error {
		if logWriter != nil {
			log.SetOutput(logWriter)
		} else {
			log.SetOutput(io.Discard)
		}
		log.Printf("[camterm] %s, mode %s, snapshots in %s", appVersion(), initialMode, writer.Dir)
		cmds := ui.Listen(ctx, term.Keys(), ui.DefaultKeymap())
		return pipeline.Run(ctx, cmds)
	})
	if err != nil {
		log.Printf("[camterm] fatal: %v", err)
		return err
	}
	log.Println("[camterm] shutting down")
	return nil
}

func initLogSink(configPath string) (io.Writer, func() error, string, error) {
	dir := filepath.Dir(configPath)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, "", err
	}
	logPath := filepath.Join(dir, "camterm.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, logPath, err
	}
	closeFn := func() error {
		return f.Close()
	}
	return f, closeFn, logPath, nil
}

func appVersion() string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "dev"
	}
	if bi, ok := debug.ReadBuildInfo(); ok && v == "dev" {
		if ver := strings.TrimSpace(bi.Main.Version); ver != "" && ver != "(devel)" {
			return ver
		}
		if derived := vcsVersion(bi); derived != "" {
			return derived
		}
	}
	return v
}

func vcsVersion(bi *debug.BuildInfo) string {
	revision := buildInfoSetting(bi, "vcs.revision")
	if revision == "" {
		return ""
	}
	short := revision
	if len(short) > 12 {
		short = short[:12]
	}
	dirty := ""
	if buildInfoSetting(bi, "vcs.modified") == "true" {
		dirty = "+dirty"
	}
	if ts := buildInfoSetting(bi, "vcs.time"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return fmt.Sprintf("v0.0.0-%s-%s%s", t.UTC().Format("20060102150405"), short, dirty)
		}
	}
	return short + dirty
}

func buildInfoSetting(bi *debug.BuildInfo, key string) string {
	for _, setting := range bi.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printVersion() {
	fmt.Printf("camterm %s\n", appVersion())
}
