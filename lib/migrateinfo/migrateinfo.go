// Package migrateinfo builds and holds the MigrateInfo session state
// spec.md §3 defines: the validated set of paths Stage 1 will stage, a
// reference to the asset store, and the mount stack recorded as prepare
// runs so a failure can unwind it.
package migrateinfo

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/balena-os/takeover/lib/assets"
	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/options"
)

// Mount records one mount made during prepare, in mount order, so cleanup
// can unwind it.
type Mount struct {
	Path   string
	FSType string
}

// MigrateInfo is the orchestrator's session state, created once at entry
// and mutated only by the staging builder.
type MigrateInfo struct {
	Image      string
	Config     string
	NwmgrFiles []string
	Wifis      []options.WifiRecord

	Assets   *assets.Assets
	LogLevel string

	// ToDir is the tmpfs root path, set once prepare creates it. Never
	// changes afterward (spec.md §3 invariant).
	ToDir string

	// mounts is the mount stack: innermost mounts at the top, popped in
	// reverse by cleanup. Every entry lies beneath ToDir.
	mounts []Mount
}

// New validates opts and builds a MigrateInfo. When image or config is not
// given, missing or unreadable (or a network-manager file is missing or
// unreadable), it logs the problem and returns an error of kind Displayed
// (via mgerr.Report) without creating any directory or mount.
func New(log *slog.Logger, opts options.Options, as *assets.Assets) (*MigrateInfo, *mgerr.Error) {
	if opts.Image == "" {
		return nil, mgerr.Report(log, "required parameter --image is missing")
	}
	if !fileExists(opts.Image) {
		return nil, mgerr.Report(log, fmt.Sprintf("image could not be found: %q", opts.Image))
	}

	if opts.Config == "" {
		return nil, mgerr.Report(log, "required parameter --config is missing")
	}
	if !fileExists(opts.Config) {
		return nil, mgerr.Report(log, fmt.Sprintf("config could not be found: %q", opts.Config))
	}

	for _, nwmgr := range opts.NwmgrCfg {
		if !fileExists(nwmgr) {
			return nil, mgerr.Report(log, fmt.Sprintf("network manager file could not be found: %q", nwmgr))
		}
	}

	return &MigrateInfo{
		Image:      opts.Image,
		Config:     opts.Config,
		NwmgrFiles: opts.NwmgrCfg,
		Wifis:      opts.Wifis,
		Assets:     as,
		LogLevel:   opts.LogLevel,
	}, nil
}

// SetToDir records the tmpfs root path. Must be called exactly once.
func (m *MigrateInfo) SetToDir(path string) {
	m.ToDir = path
}

// PushMount records a successful mount beneath ToDir.
func (m *MigrateInfo) PushMount(path, fsType string) {
	m.mounts = append(m.mounts, Mount{Path: path, FSType: fsType})
}

// Mounts returns the mount stack in mount order (innermost last).
func (m *MigrateInfo) Mounts() []Mount {
	return m.mounts
}

func fileExists(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}
