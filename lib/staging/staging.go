// Package staging builds the in-RAM root: creates the tmpfs root, mounts
// the pseudo-filesystems beneath it, and copies every artifact Stage 2
// needs into it.
package staging

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"github.com/balena-os/takeover/lib/assets"
	"github.com/balena-os/takeover/lib/layout"
	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/migrateinfo"
)

// Builder constructs the tmpfs root and stages artifacts into it.
type Builder struct {
	log    *slog.Logger
	assets *assets.Assets
}

// New returns a Builder.
func New(log *slog.Logger, as *assets.Assets) *Builder {
	return &Builder{log: log, assets: as}
}

// Build creates the tmpfs root and mounts every pseudo-filesystem beneath
// it, then copies artifacts in. Every successful mount is pushed onto
// info's mount stack immediately, so a failure partway through leaves
// enough state for cleanup to unwind exactly what succeeded.
func (b *Builder) Build(info *migrateinfo.MigrateInfo) (*layout.Layout, *mgerr.Error) {
	root, err := os.MkdirTemp("/", "TO.")
	if err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("create tmpfs root: %v", err))
	}
	lay := layout.New(root)
	info.SetToDir(root)
	b.log.Info("tmpfs root created", "path", root)

	if err := b.mount("tmpfs", root, "tmpfs", 0, ""); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("mount tmpfs at %q: %v", root, err))
	}
	info.PushMount(root, "tmpfs")

	if err := os.MkdirAll(lay.Etc(), 0o755); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("create %q: %v", lay.Etc(), err))
	}
	if err := os.Symlink("/proc/mounts", lay.Mtab()); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("symlink %q: %v", lay.Mtab(), err))
	}

	for _, mp := range []struct{ dir, fstype string }{
		{lay.Proc(), "proc"},
		{lay.Tmp(), "tmpfs"},
		{lay.Sys(), "sysfs"},
	} {
		if err := os.MkdirAll(mp.dir, 0o755); err != nil {
			return nil, mgerr.Report(b.log, fmt.Sprintf("create %q: %v", mp.dir, err))
		}
		if err := b.mount(mp.fstype, mp.dir, mp.fstype, 0, ""); err != nil {
			return nil, mgerr.Report(b.log, fmt.Sprintf("mount %s at %q: %v", mp.fstype, mp.dir, err))
		}
		info.PushMount(mp.dir, mp.fstype)
	}

	if err := os.MkdirAll(lay.Dev(), 0o755); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("create %q: %v", lay.Dev(), err))
	}
	if mountErr := b.mount("devtmpfs", lay.Dev(), "devtmpfs", 0, ""); mountErr != nil {
		b.log.Warn("devtmpfs unavailable, falling back to tmpfs+copy", "error", mountErr)
		if err := b.mount("tmpfs", lay.Dev(), "tmpfs", 0, ""); err != nil {
			return nil, mgerr.Report(b.log, fmt.Sprintf("mount fallback tmpfs at %q: %v", lay.Dev(), err))
		}
		info.PushMount(lay.Dev(), "tmpfs")
		if err := copyDevTree(lay.Dev()); err != nil {
			return nil, mgerr.Report(b.log, fmt.Sprintf("copy /dev into %q: %v", lay.Dev(), err))
		}
		os.RemoveAll(lay.DevPts())
	} else {
		info.PushMount(lay.Dev(), "devtmpfs")
	}

	if err := os.MkdirAll(lay.DevPts(), 0o755); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("create %q: %v", lay.DevPts(), err))
	}
	if err := b.mount("devpts", lay.DevPts(), "devpts", 0, ""); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("mount devpts at %q: %v", lay.DevPts(), err))
	}
	info.PushMount(lay.DevPts(), "devpts")

	if err := os.MkdirAll(lay.OldRootMountPoint(), 0o755); err != nil {
		return nil, mgerr.Report(b.log, fmt.Sprintf("create %q: %v", lay.OldRootMountPoint(), err))
	}

	if mgErr := b.copyArtifacts(lay, info); mgErr != nil {
		return nil, mgErr
	}

	return lay, nil
}

// mount is the single call site for unix.Mount, kept narrow so every mount
// in this package goes through the same error wrapping.
func (b *Builder) mount(source, target, fstype string, flags uintptr, data string) error {
	return unix.Mount(source, target, fstype, flags, data)
}

// Unmount releases one mount, tolerating the errors a mount that never
// really took (or was already torn down) can return — mirrored on the
// pack's own doUnmount helper.
func Unmount(path string) error {
	err := unix.Unmount(path, 0)
	switch err {
	case nil, unix.EPERM, unix.ENOENT, unix.EINVAL:
		return nil
	default:
		return err
	}
}
