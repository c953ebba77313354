// Package pkgmanager detects the package manager that launched the tool and
// builds the commands used to install and run the generated project.
package pkgmanager

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// UserAgentEnv is the variable npm, yarn and pnpm set for the scripts they run.
const UserAgentEnv = "npm_config_user_agent"

const (
	NPM  = "npm"
	Yarn = "yarn"
)

// PackageManager identifies a JavaScript package manager.
type PackageManager struct {
	Name string
	// Version is nil when the user agent carried no parseable version.
	Version *semver.Version
}

// Detect parses a user-agent string such as "yarn/1.22.0 npm/? node/v18.17.0".
// The name is the token before the first "/". An empty name falls back to
// fallback, or npm when fallback is empty too.
func Detect(userAgent, fallback string) PackageManager {
	if fallback == "" {
		fallback = NPM
	}

	name, rest, _ := strings.Cut(userAgent, "/")
	name = strings.TrimSpace(name)
	if name == "" {
		return PackageManager{Name: fallback}
	}

	pm := PackageManager{Name: name}
	if fields := strings.Fields(rest); len(fields) > 0 {
		if v, err := semver.NewVersion(fields[0]); err == nil {
			pm.Version = v
		}
	}
	return pm
}

// InstallArgs returns the arguments for a dependency install. Yarn skips
// engine checks; everything else gets npm's peer-dependency override.
func (p PackageManager) InstallArgs() []string {
	if p.Name == Yarn {
		return []string{"install", "--ignore-engines"}
	}
	return []string{"install", "--legacy-peer-deps"}
}

// DevCommand is the command line that starts the development server.
func (p PackageManager) DevCommand() string {
	return p.Name + " run dev"
}

// IsYarnBerry reports whether this is yarn 2 or later, which no longer
// understands --ignore-engines.
func (p PackageManager) IsYarnBerry() bool {
	return p.Name == Yarn && p.Version != nil && p.Version.Major() >= 2
}

func (p PackageManager) String() string {
	if p.Version == nil {
		return p.Name
	}
	return p.Name + " " + p.Version.String()
}
