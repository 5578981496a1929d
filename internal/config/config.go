package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/blacktop/go-termgfx"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "termgfx"

type Config struct {
	Backend         string            `koanf:"backend"`      // "auto", "kitty", "sixel", "blocks", "framebuffer"
	Placeholders    *bool             `koanf:"placeholders"` // Kitty placeholders inside tmux (default: true)
	Sixel           SixelConfig       `koanf:"sixel"`
	Blocks          BlocksConfig      `koanf:"blocks"`
	Framebuffer     FramebufferConfig `koanf:"framebuffer"`
	WriteBufferSize int               `koanf:"write_buffer_size"`
}

type SixelConfig struct {
	Mode   string `koanf:"mode"`   // "bands" or "palette" (default: "bands")
	Colors int    `koanf:"colors"` // palette size 2-256 (default: 256)
}

type BlocksConfig struct {
	Mode string `koanf:"mode"` // "density" or "halfblocks" (default: "density")
}

type FramebufferConfig struct {
	Device string `koanf:"device"` // default: /dev/fb0
}

// Load reads the default config files, then extra (if set) with the highest priority.
func Load(extra string) (*Config, error) {
	paths := getConfigPaths()
	if extra != "" {
		paths = append(paths, expandPath(extra))
	}
	return LoadFrom(paths...)
}

// LoadFrom reads the given TOML files in order, later files win.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		Backend: "auto",
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.SetBackend(cfg.Backend)
	if cfg.Framebuffer.Device != "" {
		cfg.Framebuffer.Device = expandPath(cfg.Framebuffer.Device)
	}

	return cfg, nil
}

// SetBackend overrides the configured backend. "auto" leaves selection to
// detection, including the TERMGFX_BACKEND override.
func (c *Config) SetBackend(name string) {
	c.Backend = strings.ToLower(strings.TrimSpace(name))
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/termgfx/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./termgfx.toml (pwd)
		appName + ".toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// RendererOptions maps the config onto termgfx renderer options.
func (c *Config) RendererOptions() (termgfx.RendererOptions, error) {
	opts := termgfx.RendererOptions{
		SixelColors:       c.Sixel.Colors,
		FramebufferDevice: c.Framebuffer.Device,
		WriteBufferSize:   c.WriteBufferSize,
	}

	if c.Backend != "" && c.Backend != "auto" {
		backend, err := termgfx.ParseBackend(c.Backend)
		if err != nil {
			return opts, err
		}
		opts.Backend = backend
	}

	if c.Placeholders != nil {
		opts.DisablePlaceholders = !*c.Placeholders
	}

	switch strings.ToLower(c.Sixel.Mode) {
	case "", "bands":
		opts.SixelMode = termgfx.SixelBands
	case "palette":
		opts.SixelMode = termgfx.SixelPalette
	default:
		return opts, fmt.Errorf("unknown sixel mode %q", c.Sixel.Mode)
	}

	switch strings.ToLower(c.Blocks.Mode) {
	case "", "density":
		opts.BlockMode = termgfx.BlocksDensity
	case "halfblocks", "half":
		opts.BlockMode = termgfx.BlocksHalf
	default:
		return opts, fmt.Errorf("unknown blocks mode %q", c.Blocks.Mode)
	}

	return opts, nil
}
