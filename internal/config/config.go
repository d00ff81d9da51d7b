package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/manimgen/internal/domain/scene"
	"github.com/forPelevin/manimgen/internal/ports/adapters/groq"
)

const DefaultPath = "manimgen.yaml"

type Config struct {
	Groq     GroqConfig   `yaml:"groq"`
	Manim    ManimConfig  `yaml:"manim"`
	Paths    PathsConfig  `yaml:"paths"`
	Server   ServerConfig `yaml:"server"`
	LogLevel string       `yaml:"log_level"`
}

type GroqConfig struct {
	APIKey       string   `yaml:"api_key"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type ManimConfig struct {
	Bin        string `yaml:"bin"`
	Quality    string `yaml:"quality"`
	FFprobeBin string `yaml:"ffprobe_bin"`
}

type PathsConfig struct {
	WorkDir  string `yaml:"work_dir"`
	MediaDir string `yaml:"media_dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Groq: GroqConfig{
			Model:   groq.DefaultModel,
			BaseURL: groq.DefaultBaseURL,
		},
		Manim: ManimConfig{
			Bin:        "manim",
			Quality:    scene.QualityLow.Name,
			FFprobeBin: "ffprobe",
		},
		Paths: PathsConfig{
			WorkDir:  ".",
			MediaDir: "media",
		},
		Server:   ServerConfig{Addr: ":8501"},
		LogLevel: "info",
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.applyEnv(os.Getenv)
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Groq.APIKey, "GROQ_API_KEY")
	set(&c.Groq.Model, "GROQ_MODEL")
	set(&c.Groq.BaseURL, "GROQ_BASE_URL")
	set(&c.Manim.Bin, "MANIM_BIN")
	set(&c.Manim.FFprobeBin, "FFPROBE_BIN")
	set(&c.Manim.Quality, "MANIMGEN_QUALITY")
	set(&c.Paths.WorkDir, "MANIMGEN_WORK_DIR")
	set(&c.Paths.MediaDir, "MANIMGEN_MEDIA_DIR")
	set(&c.Server.Addr, "MANIMGEN_ADDR")
	set(&c.LogLevel, "LOG_LEVEL")
	if v := strings.TrimSpace(getenv("GROQ_ALLOWED_HOSTS")); v != "" {
		c.Groq.AllowedHosts = splitList(v)
	}
}

// Validate checks everything that can be checked without calling out. The
// API key is deliberately left alone.
func (c Config) Validate() error {
	if err := groq.ValidateBaseURL(c.Groq.BaseURL, c.Groq.AllowedHosts); err != nil {
		return err
	}
	if _, err := scene.ParseQuality(c.Manim.Quality); err != nil {
		return err
	}
	if strings.TrimSpace(c.Manim.Bin) == "" {
		return errors.New("manim bin is empty")
	}
	if st, err := os.Stat(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("work dir: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("work dir %s is not a directory", c.Paths.WorkDir)
	}
	return nil
}

func (c Config) Quality() scene.Quality {
	q, err := scene.ParseQuality(c.Manim.Quality)
	if err != nil {
		return scene.QualityLow
	}
	return q
}

// MediaRoot is the media directory resolved against the work directory.
func (c Config) MediaRoot() string {
	if filepath.IsAbs(c.Paths.MediaDir) {
		return c.Paths.MediaDir
	}
	return filepath.Join(c.Paths.WorkDir, c.Paths.MediaDir)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
