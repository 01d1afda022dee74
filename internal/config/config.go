// Package config loads repohost settings from presets, YAML files,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REPOHOST_PROJECT_ROOT.
const EnvPrefix = "REPOHOST"

// ConfigRelPath is searched for under the XDG config directories.
const ConfigRelPath = "repohost/config.yaml"

// Modes select a preset.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every repohost setting.
type Config struct {
	Mode string `mapstructure:"mode" yaml:"mode"`

	// ProjectRoot contains one directory per project.
	ProjectRoot string `mapstructure:"project_root" yaml:"project_root"`
	// Host is reported in branch and tag listings.
	Host string `mapstructure:"host" yaml:"host"`

	SystemAuthor string `mapstructure:"system_author" yaml:"system_author"`
	SystemEmail  string `mapstructure:"system_email" yaml:"system_email"`

	// UserGroup is the shared group owning every project and repository.
	UserGroup string `mapstructure:"user_group" yaml:"user_group"`
	HomeRoot  string `mapstructure:"home_root" yaml:"home_root"`
	UserShell string `mapstructure:"user_shell" yaml:"user_shell"`

	// ExcludedProjects are never listed or creatable.
	ExcludedProjects []string `mapstructure:"excluded_projects" yaml:"excluded_projects"`

	CreateMessage        string `mapstructure:"create_message" yaml:"create_message"`
	DefaultCommitMessage string `mapstructure:"default_commit_message" yaml:"default_commit_message"`
	DefaultReadme        string `mapstructure:"default_readme" yaml:"default_readme"`
	DefaultBranch        string `mapstructure:"default_branch" yaml:"default_branch"`

	// StagingDir hosts the ephemeral clones of the update workflow. Empty
	// uses the OS temp directory.
	StagingDir string `mapstructure:"staging_dir" yaml:"staging_dir"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	StorerCacheSize      int `mapstructure:"storer_cache_size" yaml:"storer_cache_size"`
	AttributionCacheSize int `mapstructure:"attribution_cache_size" yaml:"attribution_cache_size"`
}

func base() Config {
	return Config{
		UserGroup:            "repohost",
		HomeRoot:             "/home",
		UserShell:            "/usr/bin/git-shell",
		ExcludedProjects:     []string{"bin", "lib", "lib64", "usr"},
		CreateMessage:        "create repository.",
		DefaultCommitMessage: "updated by repohost.",
		DefaultReadme:        "hello world!",
		DefaultBranch:        "master",
		LogFormat:            "text",
		StorerCacheSize:      1000,
		AttributionCacheSize: 4096,
	}
}

// Development returns the preset for local work.
func Development() Config {
	c := base()
	c.Mode = ModeDevelopment
	c.Host = "localhost"
	c.ProjectRoot = "/var/repohost/"
	c.SystemAuthor = "repohost"
	c.SystemEmail = "repohost@example.com"
	c.LogFile = "repohost.log"
	c.LogLevel = "debug"
	return c
}

// Production returns the preset for deployed hosts. Host, project root and
// system identity must be supplied by file, environment or flags.
func Production() Config {
	c := base()
	c.Mode = ModeProduction
	c.LogLevel = "warn"
	c.LogFormat = "json"
	return c
}

// Preset returns the preset for mode.
func Preset(mode string) (Config, error) {
	switch mode {
	case "", ModeDevelopment:
		return Development(), nil
	case ModeProduction:
		return Production(), nil
	default:
		return Config{}, fmt.Errorf("%w: unknown mode %q", ErrInvalid, mode)
	}
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	var problems []string
	if c.ProjectRoot == "" {
		problems = append(problems, "project_root is required")
	}
	if c.SystemAuthor == "" || c.SystemEmail == "" {
		problems = append(problems, "system_author and system_email are required")
	}
	if c.DefaultBranch == "" {
		problems = append(problems, "default_branch is required")
	}
	if c.StorerCacheSize < 0 || c.AttributionCacheSize < 0 {
		problems = append(problems, "cache sizes cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Excluded reports whether name is a reserved project name.
func (c Config) Excluded(name string) bool {
	for _, excluded := range c.ExcludedProjects {
		if excluded == name {
			return true
		}
	}
	return false
}

// Load builds a Config. Precedence, lowest first: the preset selected by
// mode, the YAML file (path, or ConfigRelPath under the XDG config dirs),
// REPOHOST_* environment variables, then flags that were set explicitly.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if path == "" {
		if found, err := xdg.SearchConfigFile(ConfigRelPath); err == nil {
			path = found
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	preset, err := Preset(v.GetString("mode"))
	if err != nil {
		return Config{}, err
	}
	setDefaults(v, preset)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("mode", c.Mode)
	v.SetDefault("project_root", c.ProjectRoot)
	v.SetDefault("host", c.Host)
	v.SetDefault("system_author", c.SystemAuthor)
	v.SetDefault("system_email", c.SystemEmail)
	v.SetDefault("user_group", c.UserGroup)
	v.SetDefault("home_root", c.HomeRoot)
	v.SetDefault("user_shell", c.UserShell)
	v.SetDefault("excluded_projects", c.ExcludedProjects)
	v.SetDefault("create_message", c.CreateMessage)
	v.SetDefault("default_commit_message", c.DefaultCommitMessage)
	v.SetDefault("default_readme", c.DefaultReadme)
	v.SetDefault("default_branch", c.DefaultBranch)
	v.SetDefault("staging_dir", c.StagingDir)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_file", c.LogFile)
	v.SetDefault("log_format", c.LogFormat)
	v.SetDefault("storer_cache_size", c.StorerCacheSize)
	v.SetDefault("attribution_cache_size", c.AttributionCacheSize)
}
