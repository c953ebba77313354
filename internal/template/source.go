// Package template downloads project templates from hosted git repositories.
//
// Two fetchers are provided. Tarball downloads the host's archive of a ref and
// extracts it, which needs nothing but HTTP. Git clones the repository with
// go-git, which also works for hosts without an archive endpoint.
package template

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Supported hosting sites.
const (
	SiteGitHub    = "github"
	SiteGitLab    = "gitlab"
	SiteBitbucket = "bitbucket"
)

const defaultRef = "HEAD"

var siteHosts = map[string]string{
	SiteGitHub:    "github.com",
	SiteGitLab:    "gitlab.com",
	SiteBitbucket: "bitbucket.org",
}

var (
	// ErrInvalidSource is returned for identifiers that cannot be parsed.
	ErrInvalidSource = errors.New("invalid template source")
	// ErrUnsupportedSite is returned for hosts without a known archive layout.
	ErrUnsupportedSite = errors.New("unsupported template site")
)

// Source identifies a template repository and the part of it to use.
type Source struct {
	Site   string
	User   string
	Name   string
	Ref    string
	Subdir string
}

// ParseSource parses identifiers of the forms
//
//	user/repo
//	user/repo/sub/dir#ref
//	gitlab:user/repo#ref
//	https://github.com/user/repo
//	github.com/user/repo
func ParseSource(src string) (Source, error) {
	s := Source{Site: SiteGitHub, Ref: defaultRef}

	rest := strings.TrimSpace(src)
	if rest == "" {
		return Source{}, fmt.Errorf("%w: empty identifier", ErrInvalidSource)
	}

	if path, ref, ok := strings.Cut(rest, "#"); ok {
		if ref == "" {
			return Source{}, fmt.Errorf("%w: empty ref in %q", ErrInvalidSource, src)
		}
		rest, s.Ref = path, ref
	}

	rest = strings.TrimPrefix(rest, "https://")
	rest = strings.TrimPrefix(rest, "http://")

	if site, path, ok := strings.Cut(rest, ":"); ok {
		s.Site, rest = site, path
	} else if host, path, ok := strings.Cut(rest, "/"); ok && strings.Contains(host, ".") {
		site, err := siteForHost(host)
		if err != nil {
			return Source{}, err
		}
		s.Site, rest = site, path
	}

	if _, ok := siteHosts[s.Site]; !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnsupportedSite, s.Site)
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Source{}, fmt.Errorf("%w: %q must name user/repo", ErrInvalidSource, src)
	}
	s.User = parts[0]
	s.Name = strings.TrimSuffix(parts[1], ".git")
	if len(parts) > 2 {
		s.Subdir = strings.Join(parts[2:], "/")
		// The subdirectory must stay inside the repository.
		for _, seg := range parts[2:] {
			if seg == "" || seg == "." || seg == ".." {
				return Source{}, fmt.Errorf("%w: subdirectory %q in %q", ErrInvalidSource, s.Subdir, src)
			}
		}
		if path.Clean(s.Subdir) != s.Subdir {
			return Source{}, fmt.Errorf("%w: subdirectory %q in %q", ErrInvalidSource, s.Subdir, src)
		}
	}

	return s, nil
}

func siteForHost(host string) (string, error) {
	for site, h := range siteHosts {
		if h == host {
			return site, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSite, host)
}

// Host returns the hostname of the site, e.g. "github.com".
func (s Source) Host() string {
	return siteHosts[s.Site]
}

// baseURL returns override when set, otherwise the site's https root.
func (s Source) baseURL(override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return "https://" + s.Host()
}

// ArchiveURL returns the tar.gz download URL for the source's ref.
func (s Source) ArchiveURL(override string) string {
	base := s.baseURL(override)
	switch s.Site {
	case SiteGitLab:
		return fmt.Sprintf("%s/%s/%s/-/archive/%s/%s-%s.tar.gz", base, s.User, s.Name, s.Ref, s.Name, s.Ref)
	case SiteBitbucket:
		return fmt.Sprintf("%s/%s/%s/get/%s.tar.gz", base, s.User, s.Name, s.Ref)
	default:
		return fmt.Sprintf("%s/%s/%s/archive/%s.tar.gz", base, s.User, s.Name, s.Ref)
	}
}

// CloneURL returns the git URL of the repository.
func (s Source) CloneURL(override string) string {
	if override != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(override, "/"), s.User, s.Name)
	}
	return fmt.Sprintf("%s/%s/%s.git", s.baseURL(""), s.User, s.Name)
}

func (s Source) String() string {
	id := s.Site + ":" + s.User + "/" + s.Name
	if s.Subdir != "" {
		id += "/" + s.Subdir
	}
	return id + "#" + s.Ref
}
