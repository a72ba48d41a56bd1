package migrate

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balena-os/takeover/lib/assets"
	"github.com/balena-os/takeover/lib/blockdev"
	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/migrateinfo"
	"github.com/balena-os/takeover/lib/options"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestStage1RequiresRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("this test only exercises the non-root rejection path")
	}
	mgErr := Stage1(discardLogger(), options.Options{})
	require.NotNil(t, mgErr)
	assert.Equal(t, mgerr.NotPrivileged, mgErr.Kind)
}

func TestResolveFlashDeviceDefaultsToRoot(t *testing.T) {
	root := &blockdev.Device{Name: "sda1", Path: "/dev/sda1"}
	inv := blockdev.NewFromDevices(map[string]*blockdev.Device{"/dev/sda1": root}, "/dev/sda1")

	dev, mgErr := resolveFlashDevice(discardLogger(), inv, "")
	require.Nil(t, mgErr)
	assert.Equal(t, "/dev/sda1", dev.Path)
}

func TestResolveFlashDeviceExplicit(t *testing.T) {
	root := &blockdev.Device{Name: "sda1", Path: "/dev/sda1"}
	other := &blockdev.Device{Name: "sdb", Path: "/dev/sdb"}
	inv := blockdev.NewFromDevices(map[string]*blockdev.Device{
		"/dev/sda1": root, "/dev/sdb": other,
	}, "/dev/sda1")

	dev, mgErr := resolveFlashDevice(discardLogger(), inv, "/dev/sdb")
	require.Nil(t, mgErr)
	assert.Equal(t, "/dev/sdb", dev.Path)
}

func TestResolveFlashDeviceNotFound(t *testing.T) {
	root := &blockdev.Device{Name: "sda1", Path: "/dev/sda1"}
	inv := blockdev.NewFromDevices(map[string]*blockdev.Device{"/dev/sda1": root}, "/dev/sda1")

	_, mgErr := resolveFlashDevice(discardLogger(), inv, "/dev/sdx")
	require.NotNil(t, mgErr)
	assert.Equal(t, mgerr.MissingInput, mgErr.Kind)
}

func TestBuildRequirementSumsFileSizes(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "os.img")
	config := filepath.Join(dir, "config.json")
	nwmgr := filepath.Join(dir, "nwmgr.conf")
	require.NoError(t, os.WriteFile(image, make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(config, make([]byte, 10), 0o644))
	require.NoError(t, os.WriteFile(nwmgr, make([]byte, 5), 0o644))

	info := &migrateinfo.MigrateInfo{
		Image:      image,
		Config:     config,
		NwmgrFiles: []string{nwmgr},
		Assets:     assets.Load(),
	}

	req, mgErr := buildRequirement(info)
	require.Nil(t, mgErr)
	assert.Equal(t, int64(100), req.ImageSize)
	assert.Equal(t, int64(10), req.ConfigSize)
	assert.Equal(t, []int64{5}, req.NwmgrSizes)
}

func TestBuildRequirementMissingImage(t *testing.T) {
	info := &migrateinfo.MigrateInfo{Image: "/nonexistent", Assets: assets.Load()}
	_, mgErr := buildRequirement(info)
	require.NotNil(t, mgErr)
	assert.Equal(t, mgerr.MissingInput, mgErr.Kind)
}

func TestCleanupRemovesTmpfsRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "TO.test")
	require.NoError(t, os.MkdirAll(root, 0o755))

	info := &migrateinfo.MigrateInfo{}
	info.SetToDir(root)

	cleanup(discardLogger(), info)

	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}
