package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutPaths(t *testing.T) {
	l := New("/TO.abcd1234")

	assert.Equal(t, "/TO.abcd1234", l.Root())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "etc", "mtab"), l.Mtab())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "dev", "pts"), l.DevPts())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "old_root"), l.OldRootMountPoint())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "transfer"), l.Transfer())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "transfer", ImageName), l.TransferImage())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "transfer", ConfigName), l.TransferConfig())
	assert.Equal(t, filepath.Join("/TO.abcd1234", "transfer", SystemConnectionsDirName), l.SystemConnectionsDir())
	assert.Equal(t, filepath.Join("/TO.abcd1234", Stage2ConfigName), l.Stage2Config())
	assert.Equal(t, filepath.Join("/TO.abcd1234", TakeoverBinaryName), l.Takeover())
}

func TestInitShimPath(t *testing.T) {
	l := New("/TO.xyz")
	assert.Equal(t, filepath.Join("/TO.xyz", "tmp", "systemd"), l.InitShimPath("systemd"))
}
