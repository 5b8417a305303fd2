package smashsend

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionFromBuildInfo(t *testing.T) {
	tests := []struct {
		name string
		read func() (*debug.BuildInfo, bool)
		want string
	}{
		{
			name: "no build info",
			read: func() (*debug.BuildInfo, bool) { return nil, false },
			want: "unknown",
		},
		{
			name: "main module",
			read: func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{Main: debug.Module{Path: modulePath, Version: "v1.4.0"}}, true
			},
			want: "1.4.0",
		},
		{
			name: "devel build",
			read: func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{Main: debug.Module{Path: modulePath, Version: "(devel)"}}, true
			},
			want: "unknown",
		},
		{
			name: "dependency",
			read: func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{
					Main: debug.Module{Path: "example.com/app"},
					Deps: []*debug.Module{
						{Path: "github.com/rs/zerolog", Version: "v1.34.0"},
						{Path: modulePath, Version: "v2.0.1"},
					},
				}, true
			},
			want: "2.0.1",
		},
		{
			name: "replaced dependency",
			read: func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{
					Main: debug.Module{Path: "example.com/app"},
					Deps: []*debug.Module{
						{Path: modulePath, Version: "v2.0.1", Replace: &debug.Module{Version: "v2.0.2-fork"}},
					},
				}, true
			},
			want: "2.0.2-fork",
		},
		{
			name: "reader panics",
			read: func() (*debug.BuildInfo, bool) { panic("boom") },
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, versionFromBuildInfo(tt.read))
		})
	}
}

func TestUserAgent(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserAgent(), "smashsend-go/"))
	assert.NotEqual(t, "smashsend-go/", UserAgent())
}
