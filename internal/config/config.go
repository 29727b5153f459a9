// Package config loads the optional YAML configuration that tunes indicator
// sets, form selectors, pod log sources, and wait durations per target
// deployment. Flags override whatever the file says.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/selimozcann/AuthFlowHunter/internal/browser"
	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
	"github.com/selimozcann/AuthFlowHunter/internal/podlog"
)

// Waits are the fixed settling delays before each checkpoint snapshot.
// Asynchronous OAuth redirects need real time to complete; these are
// deliberate sleeps, not polls.
type Waits struct {
	Initial time.Duration `yaml:"initial"`
	Login   time.Duration `yaml:"login"`
	Final   time.Duration `yaml:"final"`
}

// UnmarshalYAML accepts "8s" style duration strings.
func (w *Waits) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Initial string `yaml:"initial"`
		Login   string `yaml:"login"`
		Final   string `yaml:"final"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	for _, f := range []struct {
		dst *time.Duration
		src string
	}{
		{&w.Initial, raw.Initial},
		{&w.Login, raw.Login},
		{&w.Final, raw.Final},
	} {
		if f.src == "" {
			continue
		}
		d, err := time.ParseDuration(f.src)
		if err != nil {
			return fmt.Errorf("config: invalid wait %q: %w", f.src, err)
		}
		*f.dst = d
	}
	return nil
}

// Config is the full file-backed configuration.
type Config struct {
	SuccessIndicators []string              `yaml:"success_indicators"`
	ErrorIndicators   []string              `yaml:"error_indicators"`
	Selectors         browser.FormSelectors `yaml:"selectors"`
	PodSources        []podlog.Source       `yaml:"pod_sources"`
	LogTool           string                `yaml:"log_tool"`
	Waits             Waits                 `yaml:"waits"`
}

// Default returns the configuration matching the reference deployment.
func Default() Config {
	return Config{
		SuccessIndicators: []string(matcher.Success),
		ErrorIndicators:   []string(matcher.Errors),
		Selectors:         browser.DefaultSelectors(),
		PodSources:        podlog.DefaultSources(),
		LogTool:           "oc",
		Waits: Waits{
			Initial: 8 * time.Second,
			Login:   8 * time.Second,
			Final:   10 * time.Second,
		},
	}
}

// Load reads path and overlays it on the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(file.SuccessIndicators) > 0 {
		cfg.SuccessIndicators = file.SuccessIndicators
	}
	if len(file.ErrorIndicators) > 0 {
		cfg.ErrorIndicators = file.ErrorIndicators
	}
	if len(file.Selectors.Username) > 0 {
		cfg.Selectors.Username = file.Selectors.Username
	}
	if len(file.Selectors.Password) > 0 {
		cfg.Selectors.Password = file.Selectors.Password
	}
	if len(file.Selectors.Submit) > 0 {
		cfg.Selectors.Submit = file.Selectors.Submit
	}
	if len(file.PodSources) > 0 {
		cfg.PodSources = file.PodSources
	}
	if file.LogTool != "" {
		cfg.LogTool = file.LogTool
	}
	if file.Waits.Initial > 0 {
		cfg.Waits.Initial = file.Waits.Initial
	}
	if file.Waits.Login > 0 {
		cfg.Waits.Login = file.Waits.Login
	}
	if file.Waits.Final > 0 {
		cfg.Waits.Final = file.Waits.Final
	}
	return cfg, nil
}
