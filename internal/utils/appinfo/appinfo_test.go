package appinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestVersionPrefersLinkedValue(t *testing.T) {
	t.Setenv("VERSION", "from-env")
	assert.Equal(t, "v1.4.0", Version("v1.4.0"))
}

func TestVersionFromEnvironment(t *testing.T) {
	t.Setenv("VERSION", "")
	t.Setenv("APP_VERSION", "2024.06.1")
	stubBuildInfo(t, nil)
	assert.Equal(t, "2024.06.1", Version("dev"))
}

func TestVersionFromBuildInfo(t *testing.T) {
	t.Setenv("VERSION", "")
	t.Setenv("APP_VERSION", "")

	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}})
	assert.Equal(t, "v0.3.1", Version("dev"))

	stubBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}},
	})
	assert.Equal(t, "0123456789ab", Version("dev"))
}

func TestVersionFallbacks(t *testing.T) {
	t.Setenv("VERSION", "")
	t.Setenv("APP_VERSION", "")
	stubBuildInfo(t, nil)

	assert.Equal(t, "dev", Version("dev"))
	assert.Equal(t, unknownVersion, Version(""))
}
