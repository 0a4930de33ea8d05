// Package config holds the settings shared by the robot commands. Values come from an optional
// JSON file, are overridden by command line flags and fall back to built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-robot/common"
	"github.com/Carmen-Shannon/oxy-robot/engine/robot"
)

const (
	// DefaultListenAddr is the address robot-server listens on.
	DefaultListenAddr = ":10010"
	// DefaultStaticDir is the directory robot-server serves the viewer from.
	DefaultStaticDir = "./dist"
	// DefaultHTTPTimeout bounds every asset request made by robot-inspect.
	DefaultHTTPTimeout = 30 * time.Second
)

// Config holds all configurable paths and loader settings.
type Config struct {
	// Serving
	ListenAddr string `json:"listen_addr"`
	StaticDir  string `json:"static_dir"`

	// Loading
	RobotPath          string  `json:"robot_path"`
	Workers            int     `json:"workers"`
	TerminalJointIndex *int    `json:"terminal_joint_index"`
	ArrowLength        float64 `json:"arrow_length"`
	LayoutSpacing      float64 `json:"layout_spacing"`
	MaxTextureSize     int     `json:"max_texture_size"`
	HTTPTimeout        string  `json:"http_timeout"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ListenAddr string
	StaticDir  string
	RobotPath  string
	Workers    int
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.HTTPTimeout != "" {
		if _, err := time.ParseDuration(cfg.HTTPTimeout); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: http_timeout: %w", path, err)
		}
	}
	return cfg, nil
}

// Resolve applies flag overrides and fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	c.ListenAddr = common.Coalesce(flags.ListenAddr, c.ListenAddr, DefaultListenAddr)
	c.StaticDir = common.Coalesce(flags.StaticDir, c.StaticDir, DefaultStaticDir)
	c.RobotPath = common.Coalesce(flags.RobotPath, c.RobotPath, robot.DefaultRobotPath)

	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if c.Workers <= 0 {
		c.Workers = max(runtime.NumCPU()-1, 1)
	}

	if c.TerminalJointIndex == nil {
		index := robot.DefaultTerminalJointIndex
		c.TerminalJointIndex = &index
	}
	if c.ArrowLength <= 0 {
		c.ArrowLength = robot.DefaultArrowLength
	}
	if c.LayoutSpacing <= 0 {
		c.LayoutSpacing = robot.DefaultLayoutSpacing
	}
	if c.MaxTextureSize <= 0 {
		c.MaxTextureSize = robot.DefaultMaxTextureSize
	}
	c.HTTPTimeout = common.Coalesce(c.HTTPTimeout, DefaultHTTPTimeout.String())
}

// Timeout returns the HTTP timeout, or DefaultHTTPTimeout if it is unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return DefaultHTTPTimeout
	}
	return d
}

// RobotOptions returns the RobotLoader options described by the config.
func (c *Config) RobotOptions() []robot.RobotLoaderBuilderOption {
	opts := []robot.RobotLoaderBuilderOption{
		robot.WithRobotPath(c.RobotPath),
		robot.WithWorkers(c.Workers),
		robot.WithArrowLength(c.ArrowLength),
		robot.WithLayoutSpacing(c.LayoutSpacing),
		robot.WithMaxTextureSize(c.MaxTextureSize),
	}
	if c.TerminalJointIndex != nil {
		opts = append(opts, robot.WithTerminalJointIndex(*c.TerminalJointIndex))
	}
	return opts
}
