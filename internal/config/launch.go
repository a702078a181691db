// Package config loads the browser launch configuration and holds the
// constants shared across the server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// LaunchConfig describes how the browser process is started.
// It is created once at startup and never modified afterwards.
type LaunchConfig struct {
	// ExecutablePath is the browser binary; it must be executable
	ExecutablePath string
	// Headless runs the browser without a window (nil means driver default)
	Headless *bool
	// Args are extra command-line switches for the browser
	Args []string
	// Env overrides the environment of the browser process
	Env map[string]string
	// Timeout bounds the browser launch
	Timeout time.Duration
	// SlowMo slows down driver operations by the given duration
	SlowMo time.Duration
	// Channel selects a browser distribution channel
	Channel string
	// IgnoreDefaultArgs filters out the given default switches
	IgnoreDefaultArgs []string
	// IgnoreAllDefaultArgs drops every default switch
	IgnoreAllDefaultArgs bool
	// HandleSIGINT, HandleSIGTERM and HandleSIGHUP control whether the
	// driver closes the browser on those signals
	HandleSIGINT  *bool
	HandleSIGTERM *bool
	HandleSIGHUP  *bool
	// DownloadsPath is where the browser stores downloads
	DownloadsPath string
	// Viewport sizes the page the diagrams are rendered in (nil means driver
	// default). NoViewport is set when the config asks for none.
	Viewport   *Viewport
	NoViewport bool
	// IgnoreHTTPSErrors accepts invalid certificates in the page
	IgnoreHTTPSErrors *bool
	// Extra holds keys that have no browser launch equivalent
	Extra map[string]any
}

// Viewport is the page emulation applied to the rendering page.
type Viewport struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"deviceScaleFactor"`
	IsMobile          bool    `json:"isMobile"`
	HasTouch          bool    `json:"hasTouch"`
}

// launchOptions mirrors the accepted JSON keys of the launch configuration.
type launchOptions struct {
	ExecutablePath      string            `json:"executablePath"`
	Headless            any               `json:"headless"`
	Args                []string          `json:"args"`
	Env                 map[string]string `json:"env"`
	Timeout             *float64          `json:"timeout"`
	SlowMo              *float64          `json:"slowMo"`
	Channel             string            `json:"channel"`
	IgnoreDefaultArgs   any               `json:"ignoreDefaultArgs"`
	HandleSIGINT        *bool             `json:"handleSIGINT"`
	HandleSIGTERM       *bool             `json:"handleSIGTERM"`
	HandleSIGHUP        *bool             `json:"handleSIGHUP"`
	DownloadsPath       string            `json:"downloadsPath"`
	DefaultViewport     *Viewport         `json:"defaultViewport"`
	IgnoreHTTPSErrors   *bool             `json:"ignoreHTTPSErrors"`
	AcceptInsecureCerts *bool             `json:"acceptInsecureCerts"`
}

var knownKeys = map[string]bool{
	"executablePath":      true,
	"headless":            true,
	"args":                true,
	"env":                 true,
	"timeout":             true,
	"slowMo":              true,
	"channel":             true,
	"ignoreDefaultArgs":   true,
	"handleSIGINT":        true,
	"handleSIGTERM":       true,
	"handleSIGHUP":        true,
	"downloadsPath":       true,
	"defaultViewport":     true,
	"ignoreHTTPSErrors":   true,
	"acceptInsecureCerts": true,
}

// Load reads the launch configuration from the positional command-line
// arguments. The first argument is either an inline JSON object or the path
// of a JSON or YAML file holding the same object.
func Load(args []string) (*LaunchConfig, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, &NoConfigError{Message: MsgNoConfig}
	}

	source := strings.TrimSpace(args[0])
	var (
		raw map[string]any
		err error
	)
	if strings.HasPrefix(source, "{") {
		raw, err = decodeJSON([]byte(source))
		if err != nil {
			return nil, &BadLaunchOptionsError{
				Message: fmt.Sprintf("Config file parse error: %v", err),
				Options: source,
			}
		}
	} else {
		//nolint:gosec // G304: reading the operator supplied config file is the point
		data, readErr := os.ReadFile(source)
		if readErr != nil {
			return nil, &BadLaunchOptionsError{Message: "Invalid config file", Options: readErr}
		}
		raw, err = decodeFile(source, data)
		if err != nil {
			return nil, &BadLaunchOptionsError{
				Message: fmt.Sprintf("Config file parse error: %v", err),
				Options: string(data),
			}
		}
	}

	return fromRaw(raw)
}

func decodeJSON(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("config must be an object")
	}
	return raw, nil
}

func decodeFile(path string, data []byte) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, fmt.Errorf("config must be an object")
		}
		return raw, nil
	default:
		return decodeJSON(data)
	}
}

func fromRaw(raw map[string]any) (*LaunchConfig, error) {
	// Round-trip through JSON so YAML and JSON sources share one decoder.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &BadLaunchOptionsError{Message: fmt.Sprintf("Config file parse error: %v", err), Options: raw}
	}
	var opts launchOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, &BadLaunchOptionsError{Message: fmt.Sprintf("Config file parse error: %v", err), Options: raw}
	}

	if opts.ExecutablePath == "" {
		return nil, &BadLaunchOptionsError{Message: "Missing Browser executablePath", Options: raw}
	}
	if err := checkExecutable(opts.ExecutablePath); err != nil {
		return nil, &BadLaunchOptionsError{
			Message: fmt.Sprintf("Browser binary '%s' is not executable", opts.ExecutablePath),
			Options: raw,
		}
	}

	cfg := &LaunchConfig{
		ExecutablePath: opts.ExecutablePath,
		Args:           opts.Args,
		Env:            opts.Env,
		Timeout:        DefaultLaunchTimeout,
		Channel:        opts.Channel,
		HandleSIGINT:   opts.HandleSIGINT,
		HandleSIGTERM:  opts.HandleSIGTERM,
		HandleSIGHUP:   opts.HandleSIGHUP,
		DownloadsPath:  opts.DownloadsPath,
		Extra:          make(map[string]any),
	}
	if opts.Timeout != nil && *opts.Timeout > 0 {
		cfg.Timeout = time.Duration(*opts.Timeout * float64(time.Millisecond))
	}
	if opts.SlowMo != nil && *opts.SlowMo > 0 {
		cfg.SlowMo = time.Duration(*opts.SlowMo * float64(time.Millisecond))
	}

	headless, err := parseHeadless(opts.Headless)
	if err != nil {
		return nil, &BadLaunchOptionsError{Message: err.Error(), Options: raw}
	}
	cfg.Headless = headless

	switch v := opts.IgnoreDefaultArgs.(type) {
	case nil:
	case bool:
		cfg.IgnoreAllDefaultArgs = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &BadLaunchOptionsError{Message: "ignoreDefaultArgs must be a boolean or a list of strings", Options: raw}
			}
			cfg.IgnoreDefaultArgs = append(cfg.IgnoreDefaultArgs, s)
		}
	default:
		return nil, &BadLaunchOptionsError{Message: "ignoreDefaultArgs must be a boolean or a list of strings", Options: raw}
	}

	if _, present := raw["defaultViewport"]; present {
		switch vp := opts.DefaultViewport; {
		case vp == nil:
			cfg.NoViewport = true
		case vp.Width <= 0 || vp.Height <= 0:
			return nil, &BadLaunchOptionsError{Message: "defaultViewport needs a positive width and height", Options: raw}
		default:
			cfg.Viewport = vp
		}
	}

	cfg.IgnoreHTTPSErrors = opts.IgnoreHTTPSErrors
	if opts.AcceptInsecureCerts != nil {
		cfg.IgnoreHTTPSErrors = opts.AcceptInsecureCerts
	}

	for key, value := range raw {
		if !knownKeys[key] {
			cfg.Extra[key] = value
		}
	}

	return cfg, nil
}

// parseHeadless accepts a boolean or one of the legacy string modes.
func parseHeadless(v any) (*bool, error) {
	switch h := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return &h, nil
	case string:
		switch strings.ToLower(h) {
		case "true", "new", "shell":
			t := true
			return &t, nil
		case "false":
			f := false
			return &f, nil
		}
	}
	return nil, fmt.Errorf("unsupported headless value %v", v)
}

// checkExecutable verifies path is a regular file the process may execute.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return unix.Access(path, unix.X_OK)
}
