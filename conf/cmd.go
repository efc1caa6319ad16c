package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/device"
	"github.com/svanichkin/camterm/snapshot"
	"github.com/svanichkin/camterm/ui"
)

// ErrUsage marks command-line mistakes; the process exits with status 2.
var ErrUsage = errors.New("usage error")

const (
	DefaultMaxFPS      = 30
	DefaultSnapshotDir = "."
)

// AppOptions aggregates all CLI flags and configuration options required by the application.
type AppOptions struct {
	Verbose     bool
	ShowVersion bool
	ConfigPath  string

	// Mode is the startup render mode; ModeSet is false when neither a flag
	// nor the config file chose one and the terminal profile should decide.
	Mode    codec.Mode
	ModeSet bool

	Device  int
	Backend device.Backend

	SnapshotDir    string
	SnapshotFormat snapshot.Format

	MaxFPS           int
	FailureThreshold int
	ShowStatus       bool

	CellAspect float64
	Smooth     bool
	Mirror     bool
	Letterbox  bool
	Tint       codec.Color
}

// FileConfig is the optional JSON config. Flags override every field.
type FileConfig struct {
	SnapshotDir string `json:"snapshot_dir,omitempty"`
	Format      string `json:"format,omitempty"`
	Mode        string `json:"mode,omitempty"`
	FPS         int    `json:"fps,omitempty"`
	Backend     string `json:"backend,omitempty"`
}

// ConverterOptions maps the rendering flags onto codec options.
func (opts *AppOptions) ConverterOptions() codec.ConverterOptions {
	fit := codec.FitFill
	if opts.Letterbox {
		fit = codec.FitLetterbox
	}
	return codec.ConverterOptions{
		CellAspect: opts.CellAspect,
		Smooth:     opts.Smooth,
		Mirror:     opts.Mirror,
		Fit:        fit,
		Tint:       opts.Tint,
	}
}

// CameraOptions maps the device flags onto capture options.
func (opts *AppOptions) CameraOptions() device.CameraOptions {
	return device.CameraOptions{Backend: opts.Backend, Index: opts.Device}
}

// flagParseState remembers which settings came from the command line so the
// config file does not override them.
type flagParseState struct {
	set map[string]bool
}

// ParseCLI parses os.Args.
func ParseCLI() (*AppOptions, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line flags into an AppOptions structure, resolves
// the config path and merges the config file. A missing default config is
// skipped; a missing -config file is a usage error.
func ParseArgs(args []string) (*AppOptions, error) {
	opts := &AppOptions{
		Backend:          device.BackendAuto,
		SnapshotDir:      DefaultSnapshotDir,
		SnapshotFormat:   snapshot.FormatPNG,
		MaxFPS:           DefaultMaxFPS,
		FailureThreshold: ui.DefaultFailureThreshold,
		ShowStatus:       true,
		CellAspect:       codec.DefaultCellAspect,
	}

	rawArgs := compactArgs(args)
	flagTokens, consumed := collectDashPrefixedArgs(rawArgs)
	state := &flagParseState{set: map[string]bool{}}
	if err := applyFlagTokens(flagTokens, opts, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if extra := remainingArgs(rawArgs, consumed); len(extra) > 0 {
		return nil, fmt.Errorf("%w: unexpected positional arguments: %v", ErrUsage, extra)
	}
	if opts.ShowVersion {
		return opts, nil
	}

	explicitCfg := strings.TrimSpace(opts.ConfigPath) != ""
	resolvedCfg, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config path error: %w", err)
	}
	opts.ConfigPath = resolvedCfg
	fileCfg, err := LoadFileConfig(resolvedCfg)
	switch {
	case err == nil:
		if err := applyFileConfig(fileCfg, opts, state); err != nil {
			return nil, fmt.Errorf("config %s: %w", resolvedCfg, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// only the default config is optional
		if explicitCfg {
			return nil, fmt.Errorf("%w: config %s not found", ErrUsage, resolvedCfg)
		}
	default:
		return nil, fmt.Errorf("config %s: %w", resolvedCfg, err)
	}

	dir, err := resolvePathAllowingHome(opts.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	opts.SnapshotDir = dir
	return opts, nil
}

// LoadFileConfig reads the JSON config at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyFileConfig(cfg *FileConfig, opts *AppOptions, state *flagParseState) error {
	if cfg.SnapshotDir != "" && !state.set["dir"] {
		opts.SnapshotDir = strings.TrimSpace(cfg.SnapshotDir)
	}
	if cfg.Format != "" && !state.set["format"] {
		f, err := snapshot.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		opts.SnapshotFormat = f
	}
	if cfg.Mode != "" && !state.set["mode"] {
		m, err := codec.ParseMode(cfg.Mode)
		if err != nil {
			return err
		}
		opts.Mode = m
		opts.ModeSet = true
	}
	if cfg.FPS != 0 && !state.set["fps"] {
		if cfg.FPS < 0 {
			return fmt.Errorf("fps %d must not be negative", cfg.FPS)
		}
		opts.MaxFPS = cfg.FPS
	}
	if cfg.Backend != "" && !state.set["backend"] {
		b, err := device.ParseBackend(cfg.Backend)
		if err != nil {
			return err
		}
		opts.Backend = b
	}
	return nil
}

// resolveConfigPath normalizes the config file path, expanding "~" and
// converting it to an absolute path. When cfg is empty, it defaults to
// $XDG_CONFIG_HOME/camterm/config.json or ~/.config/camterm/config.json. A
// bare name without an extension (e.g. "studio") is treated as a profile
// inside the default config directory ("studio.json").
func resolveConfigPath(cfg string) (string, error) {
	raw := strings.TrimSpace(cfg)

	switch {
	case raw == "":
		if dir, err := defaultConfigDir(); err == nil {
			raw = filepath.Join(dir, "config.json")
		} else {
			raw = "config.json"
		}
	case filepath.Base(raw) == raw && filepath.Ext(raw) == "":
		if dir, err := defaultConfigDir(); err == nil {
			raw = filepath.Join(dir, raw+".json")
		} else {
			raw = raw + ".json"
		}
	}
	return resolvePathAllowingHome(raw)
}

func defaultConfigDir() (string, error) {
	d, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "camterm"), nil
}

func resolvePathAllowingHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		h, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(h, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return filepath.Abs(path)
}

func compactArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	out := make([]string, 0, len(args))
	for _, raw := range args {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func collectDashPrefixedArgs(args []string) ([]string, map[int]struct{}) {
	consumed := make(map[int]struct{})
	if len(args) == 0 {
		return nil, consumed
	}
	flags := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		token := args[i]
		if token == "--" {
			consumed[i] = struct{}{}
			break
		}
		if !strings.HasPrefix(token, "-") || token == "-" {
			continue
		}
		consumed[i] = struct{}{}
		keyToken := token
		if idx := strings.Index(token, "="); idx != -1 {
			keyToken = token[:idx]
		}
		key := normalizeFlagKey(keyToken)
		combined := token
		if !strings.Contains(token, "=") && flagRequiresValue(key) && i+1 < len(args) {
			next := args[i+1]
			if next != "--" && (!strings.HasPrefix(next, "-") || looksNumeric(next)) {
				consumed[i+1] = struct{}{}
				combined = fmt.Sprintf("%s=%s", token, next)
				i++
			}
		}
		flags = append(flags, combined)
	}
	return flags, consumed
}

func remainingArgs(args []string, consumed map[int]struct{}) []string {
	if len(args) == 0 {
		return nil
	}
	extra := make([]string, 0, len(args))
	for idx, token := range args {
		if _, ok := consumed[idx]; ok {
			continue
		}
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			continue
		}
		extra = append(extra, trimmed)
	}
	return extra
}

func applyFlagTokens(tokens []string, opts *AppOptions, state *flagParseState) error {
	for _, token := range tokens {
		key, value, hasValue := splitFlagToken(token)
		if flagRequiresValue(key) && (!hasValue || value == "") {
			return fmt.Errorf("-%s requires a value", key)
		}
		switch key {
		case "v", "verbose":
			b, err := parseBoolFlag(key, value, hasValue)
			if err != nil {
				return err
			}
			opts.Verbose = b
		case "version":
			b, err := parseBoolFlag(key, value, hasValue)
			if err != nil {
				return err
			}
			opts.ShowVersion = b
		case "smooth", "mirror", "letterbox", "nostatus":
			b, err := parseBoolFlag(key, value, hasValue)
			if err != nil {
				return err
			}
			switch key {
			case "smooth":
				opts.Smooth = b
			case "mirror":
				opts.Mirror = b
			case "letterbox":
				opts.Letterbox = b
			case "nostatus":
				opts.ShowStatus = !b
			}
		case "config":
			if opts.ConfigPath != "" && opts.ConfigPath != value {
				return fmt.Errorf("-config specified multiple times")
			}
			opts.ConfigPath = value
		case "mode":
			m, err := codec.ParseMode(value)
			if err != nil {
				return err
			}
			opts.Mode = m
			opts.ModeSet = true
		case "device":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid device index %q", value)
			}
			opts.Device = n
		case "backend":
			b, err := device.ParseBackend(value)
			if err != nil {
				return err
			}
			opts.Backend = b
		case "dir":
			opts.SnapshotDir = value
		case "format":
			f, err := snapshot.ParseFormat(value)
			if err != nil {
				return err
			}
			opts.SnapshotFormat = f
		case "fps":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > 1000 {
				return fmt.Errorf("invalid fps %q", value)
			}
			opts.MaxFPS = n
		case "threshold":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid failure threshold %q", value)
			}
			opts.FailureThreshold = n
		case "aspect":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil || f < 0.25 || f > 8 {
				return fmt.Errorf("invalid cell aspect %q", value)
			}
			opts.CellAspect = f
		case "tint":
			hex := value
			if !strings.HasPrefix(hex, "#") {
				hex = "#" + hex
			}
			c, err := colorful.Hex(hex)
			if err != nil {
				return fmt.Errorf("invalid tint %q: %v", value, err)
			}
			r, g, b := c.RGB255()
			opts.Tint = codec.RGB(r, g, b)
		default:
			return fmt.Errorf("unknown flag %q", token)
		}
		state.set[key] = true
	}
	return nil
}

func parseBoolFlag(key, value string, hasValue bool) (bool, error) {
	if !hasValue || value == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value for -%s: %q", key, value)
	}
	return b, nil
}

func splitFlagToken(token string) (string, string, bool) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", "", false
	}
	parts := strings.SplitN(trimmed, "=", 2)
	key := normalizeFlagKey(parts[0])
	if len(parts) == 1 {
		return key, "", false
	}
	return key, strings.TrimSpace(parts[1]), true
}

func normalizeFlagKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimLeft(trimmed, "-")
	return strings.ToLower(trimmed)
}

func flagRequiresValue(key string) bool {
	switch key {
	case "config", "mode", "device", "backend", "dir", "format", "fps", "threshold", "aspect", "tint":
		return true
	default:
		return false
	}
}

func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Usage describes the command line.
func Usage() string {
	var modes []string
	for _, m := range codec.Modes() {
		modes = append(modes, m.String())
	}
	return `usage: camterm [flags]

  -mode NAME        startup render mode (` + strings.Join(modes, ", ") + `)
  -device N         capture device index (default 0)
  -backend NAME     capture backend: auto, gocam, v4l2
  -dir PATH         snapshot directory (default .)
  -format NAME      snapshot format: png, jpg, rgbz
  -fps N            render rate cap, 0 for uncapped (default 30)
  -threshold N      consecutive capture failures before exit (default 3)
  -aspect F         terminal cell height/width ratio (default 2.0)
  -smooth           bilinear sampling
  -mirror           flip horizontally
  -letterbox        show the whole frame with blank bars
  -tint RRGGBB      foreground color for ascii mode
  -nostatus         hide the status line
  -config PATH      config file or profile name
  -v                verbose logging
  -version          print version and exit

keys: 1-` + strconv.Itoa(len(modes)) + ` mode, m/tab next mode, s snapshot, space freeze, q/esc quit
`
}
