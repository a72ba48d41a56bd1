// Package layout names every path inside the tmpfs root Stage 1 builds,
// centralizing path construction the way the teacher's lib/paths package
// centralizes its data-directory layout.
//
// Tmpfs root:
//
//	TO.XXXXXXXX/
//	  etc/mtab -> /proc/mounts
//	  proc/, sys/, tmp/, dev/, dev/pts/
//	  old_root/
//	  busybox
//	  takeover
//	  transfer/
//	    <image name>
//	    <config name>
//	    system-connections/balena-NN
//	  balena-stage2.yaml
package layout

import "path/filepath"

const (
	// ImageName is the filename the OS image is staged under in transfer/.
	ImageName = "resin-image.dat"
	// ConfigName is the filename the device config is staged under in transfer/.
	ConfigName = "config.json"
	// SystemConnectionsDirName holds numbered network-manager and Wi-Fi profiles.
	SystemConnectionsDirName = "system-connections"
	// Stage2ConfigName is the handoff config's filename at the tmpfs root.
	Stage2ConfigName = "balena-stage2.yaml"
	// TakeoverBinaryName is the name the current executable is copied under.
	TakeoverBinaryName = "takeover"
	// OldRootMountPointName is where Stage 2 re-exposes the original root.
	OldRootMountPointName = "old_root"
)

// Layout is a typed view over one tmpfs root.
type Layout struct {
	root string
}

// New wraps an existing tmpfs root path.
func New(root string) *Layout {
	return &Layout{root: root}
}

// Root returns the tmpfs root itself.
func (l *Layout) Root() string {
	return l.root
}

func (l *Layout) Etc() string        { return filepath.Join(l.root, "etc") }
func (l *Layout) Mtab() string       { return filepath.Join(l.Etc(), "mtab") }
func (l *Layout) Proc() string       { return filepath.Join(l.root, "proc") }
func (l *Layout) Sys() string        { return filepath.Join(l.root, "sys") }
func (l *Layout) Tmp() string        { return filepath.Join(l.root, "tmp") }
func (l *Layout) Dev() string        { return filepath.Join(l.root, "dev") }
func (l *Layout) DevPts() string     { return filepath.Join(l.Dev(), "pts") }
func (l *Layout) OldRootMountPoint() string {
	return filepath.Join(l.root, OldRootMountPointName)
}

func (l *Layout) Busybox() string  { return filepath.Join(l.root, "busybox") }
func (l *Layout) Takeover() string { return filepath.Join(l.root, TakeoverBinaryName) }

func (l *Layout) Transfer() string { return filepath.Join(l.root, "transfer") }
func (l *Layout) TransferImage() string {
	return filepath.Join(l.Transfer(), ImageName)
}
func (l *Layout) TransferConfig() string {
	return filepath.Join(l.Transfer(), ConfigName)
}
func (l *Layout) SystemConnectionsDir() string {
	return filepath.Join(l.Transfer(), SystemConnectionsDirName)
}

func (l *Layout) Stage2Config() string {
	return filepath.Join(l.root, Stage2ConfigName)
}

// InitShimPath returns where the Stage 2 shim is written under tmp/,
// named after the basename of the init binary it will be bind-mounted over.
func (l *Layout) InitShimPath(initBasename string) string {
	return filepath.Join(l.Tmp(), initBasename)
}
