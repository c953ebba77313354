package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		input string
		want  Source
	}{
		{
			input: "GeKaixing/next-saas-template#main",
			want:  Source{Site: SiteGitHub, User: "GeKaixing", Name: "next-saas-template", Ref: "main"},
		},
		{
			input: "user/repo",
			want:  Source{Site: SiteGitHub, User: "user", Name: "repo", Ref: "HEAD"},
		},
		{
			input: "user/repo/templates/web#v1.2.0",
			want:  Source{Site: SiteGitHub, User: "user", Name: "repo", Ref: "v1.2.0", Subdir: "templates/web"},
		},
		{
			input: "gitlab:group/project#dev",
			want:  Source{Site: SiteGitLab, User: "group", Name: "project", Ref: "dev"},
		},
		{
			input: "bitbucket:team/repo",
			want:  Source{Site: SiteBitbucket, User: "team", Name: "repo", Ref: "HEAD"},
		},
		{
			input: "https://github.com/user/repo.git",
			want:  Source{Site: SiteGitHub, User: "user", Name: "repo", Ref: "HEAD"},
		},
		{
			input: "gitlab.com/group/project/sub#main",
			want:  Source{Site: SiteGitLab, User: "group", Name: "project", Ref: "main", Subdir: "sub"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSource(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSource_Invalid(t *testing.T) {
	_, err := ParseSource("")
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = ParseSource("justarepo")
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = ParseSource("user/repo#")
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = ParseSource("sourcehut:user/repo")
	assert.ErrorIs(t, err, ErrUnsupportedSite)

	_, err = ParseSource("https://example.com/user/repo")
	assert.ErrorIs(t, err, ErrUnsupportedSite)

	subdirs := []string{
		"acme/starter/..",
		"acme/starter/../../etc",
		"acme/starter/templates/../..",
		"acme/starter/./web",
		"acme/starter/templates//web",
		"github:acme/starter/..#main",
	}
	for _, src := range subdirs {
		_, err = ParseSource(src)
		assert.ErrorIs(t, err, ErrInvalidSource, src)
	}
}

func TestSource_ArchiveURL(t *testing.T) {
	gh := Source{Site: SiteGitHub, User: "u", Name: "r", Ref: "main"}
	assert.Equal(t, "https://github.com/u/r/archive/main.tar.gz", gh.ArchiveURL(""))
	assert.Equal(t, "http://127.0.0.1:8080/u/r/archive/main.tar.gz", gh.ArchiveURL("http://127.0.0.1:8080/"))

	gl := Source{Site: SiteGitLab, User: "u", Name: "r", Ref: "main"}
	assert.Equal(t, "https://gitlab.com/u/r/-/archive/main/r-main.tar.gz", gl.ArchiveURL(""))

	bb := Source{Site: SiteBitbucket, User: "u", Name: "r", Ref: "main"}
	assert.Equal(t, "https://bitbucket.org/u/r/get/main.tar.gz", bb.ArchiveURL(""))
}

func TestSource_CloneURL(t *testing.T) {
	s := Source{Site: SiteGitHub, User: "u", Name: "r", Ref: "HEAD"}
	assert.Equal(t, "https://github.com/u/r.git", s.CloneURL(""))
	assert.Equal(t, "/srv/repos/u/r", s.CloneURL("/srv/repos/"))
}

func TestSource_String(t *testing.T) {
	s := Source{Site: SiteGitHub, User: "u", Name: "r", Ref: "main", Subdir: "web"}
	assert.Equal(t, "github:u/r/web#main", s.String())
}
