package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"click-overlay/src/control"
	"click-overlay/src/cursor"
	"click-overlay/src/engine"
	"click-overlay/src/hotkey"
	"click-overlay/src/taskbar"
	"click-overlay/src/winctl"
)

const (
	// EnvFileVar names an alternative .env file used when none sits next to
	// the executable.
	EnvFileVar     = "CLICK_OVERLAY_ENV"
	DefaultLogFile = "click_overlay.log"
)

// LoadOptions carries command-line overrides. Empty fields keep the value
// resolved from the environment.
type LoadOptions struct {
	HotkeyOverride  string
	WindowOverride  string
	BackendOverride string
	LogLevel        string
	EnvFile         string
}

type Config struct {
	Hotkey            string
	Window            string
	Backend           winctl.Backend
	HideDelay         time.Duration
	PollInterval      time.Duration
	PollBackoff       time.Duration
	BarID             string
	HandleID          string
	Tray              bool
	EnableFileLogging bool
	LogFile           string
	LogLevel          string
	Ports             control.PortRange
	EnvPath           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions resolves configuration from, in increasing priority: the
// .env file, the process environment, and opts.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	envPath := opts.EnvFile
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	if envPath != "" {
		// Load never overrides variables already set in the environment.
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	backend, err := winctl.ParseBackend(firstNonEmpty(opts.BackendOverride, os.Getenv("OVERLAY_BACKEND")))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Hotkey:            firstNonEmpty(opts.HotkeyOverride, getEnvWithDefault("OVERLAY_HOTKEY", hotkey.DefaultCombo)),
		Window:            firstNonEmpty(opts.WindowOverride, os.Getenv("OVERLAY_WINDOW")),
		Backend:           backend,
		HideDelay:         envMillis("OVERLAY_AUTOHIDE_MS", taskbar.DefaultHideDelay),
		PollInterval:      envMillis("OVERLAY_POLL_MS", cursor.DefaultInterval),
		PollBackoff:       envMillis("OVERLAY_POLL_BACKOFF_MS", cursor.DefaultBackoff),
		BarID:             getEnvWithDefault("OVERLAY_BAR_ID", engine.DefaultBarID),
		HandleID:          getEnvWithDefault("OVERLAY_HANDLE_ID", engine.DefaultHandleID),
		Tray:              envBool("OVERLAY_TRAY", true),
		EnableFileLogging: envBool("ENABLE_FILE_LOGGING", false),
		LogFile:           getEnvWithDefault("LOG_FILE", DefaultLogFile),
		LogLevel:          firstNonEmpty(opts.LogLevel, getEnvWithDefault("LOG_LEVEL", "info")),
		Ports: control.PortRange{
			Start: envInt("CONTROL_PORT_START", control.DefaultPortStart),
			End:   envInt("CONTROL_PORT_END", control.DefaultPortEnd),
		}.Normalize(),
		EnvPath: envPath,
	}
	if _, err := hotkey.Parse(cfg.Hotkey); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveEnvPath prefers a .env next to the executable, then the file named
// by EnvFileVar.
func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv(EnvFileVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return n
	}
	return def
}

// envMillis reads a positive millisecond count.
func envMillis(key string, def time.Duration) time.Duration {
	if n := envInt(key, 0); n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
