// Package types defines core types and interfaces for create-next-saas.
package types

import (
	"context"
	"time"
)

// Phase is the stage a bootstrap session has reached.
type Phase int

const (
	PhaseFetching Phase = iota
	PhaseInstalling
	PhaseInitializingVCS
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseInstalling:
		return "installing"
	case PhaseInitializingVCS:
		return "initializing-vcs"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session holds the state of a single bootstrap run. It lives only for the
// duration of the process.
type Session struct {
	ProjectName    string
	ProjectPath    string
	PackageManager string
	Phase          Phase
}

// FetchOptions controls how a template is written to its destination.
type FetchOptions struct {
	// Cache allows reuse of a previously downloaded copy of the template.
	Cache bool
	// Force overwrites files in a non-empty destination.
	Force bool
}

// TemplateFetcher downloads a template into a destination directory.
type TemplateFetcher interface {
	// Fetch populates dest with the contents of the template identified by src.
	Fetch(ctx context.Context, src string, dest string, opts FetchOptions) error
}

// Command describes a child process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Inherit attaches the child's standard streams to the parent's.
	Inherit bool
}

// CommandRunner executes child processes.
type CommandRunner interface {
	// Run starts the command and waits for it to exit. A non-zero exit status
	// is reported as an error.
	Run(ctx context.Context, cmd Command) error
}

// VCSInitializer creates a version-control repository in a directory.
type VCSInitializer interface {
	Init(ctx context.Context, dir string) error
	Name() string
}

// Progress reports the state of a long-running step to the user.
type Progress interface {
	Start(message string)
	Succeed(message string)
	Fail(message string)
}

// Config represents the application configuration.
type Config struct {
	// Template
	Template    string `yaml:"template" mapstructure:"template"`
	DefaultName string `yaml:"default_name" mapstructure:"default_name"`

	// Fetching
	FetchMode   string        `yaml:"fetch_mode" mapstructure:"fetch_mode"`
	Cache       bool          `yaml:"cache" mapstructure:"cache"`
	CacheDir    string        `yaml:"cache_dir" mapstructure:"cache_dir"`
	Force       bool          `yaml:"force" mapstructure:"force"`
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`

	// Install
	SkipInstall           bool   `yaml:"skip_install" mapstructure:"skip_install"`
	DefaultPackageManager string `yaml:"default_package_manager" mapstructure:"default_package_manager"`

	// Version control
	VCS string `yaml:"vcs" mapstructure:"vcs"`

	// System
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// HealthStatus represents the result of a single environment check.
type HealthStatus struct {
	Name    string `json:"name" yaml:"name"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Latency string `json:"latency,omitempty" yaml:"latency,omitempty"`
}
