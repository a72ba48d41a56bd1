// Package migrate is the Stage 1 orchestrator: it sequences privilege
// checking, migrate-info construction, space planning, staging, the
// unmount-plan and handoff config, and the init swap, invoking cleanup on
// any failure short of the init bind-mount.
package migrate

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/balena-os/takeover/lib/assets"
	"github.com/balena-os/takeover/lib/blockdev"
	"github.com/balena-os/takeover/lib/initswap"
	"github.com/balena-os/takeover/lib/layout"
	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/migrateinfo"
	"github.com/balena-os/takeover/lib/options"
	"github.com/balena-os/takeover/lib/space"
	"github.com/balena-os/takeover/lib/stage2config"
	"github.com/balena-os/takeover/lib/staging"

	"log/slog"
)

// Stage1 runs the full Stage 1 pipeline. On success it returns nil and a
// reboot into Stage 2 is pending; on failure it returns a *mgerr.Error.
// Errors of kind Displayed were already logged through Report; errors of
// any other kind (NotPrivileged, InsufficientMem, MissingInput) were not.
func Stage1(log *slog.Logger, opts options.Options) *mgerr.Error {
	state := StateStart

	if os.Geteuid() != 0 {
		return mgerr.NewError(mgerr.NotPrivileged, "takeover stage 1 must run as root", nil)
	}
	state = StatePrivCheck

	as := assets.Load()
	info, mgErr := migrateinfo.New(log, opts, as)
	if mgErr != nil {
		return mgErr
	}
	state = StateInfoCollected

	lay, mgErr := prepare(log, as, info, opts)
	if mgErr != nil {
		cleanup(log, info)
		state = StateDone
		return mgErr
	}
	state = StatePrepared

	if mgErr := initswap.New(log, as).Swap(lay); mgErr != nil {
		// Past the bind-mount this is unrecoverable either way; the swap
		// helper itself only returns non-nil before the bind-mount took
		// effect (tty/init lookup, shim write, chdir), so cleanup still
		// applies here.
		cleanup(log, info)
		state = StateDone
		return mgErr
	}
	state = StateHandoff

	log.Info("stage 1 complete, syncing and waiting for reboot", "state", state)
	unix.Sync()
	time.Sleep(10 * time.Second)

	return nil
}

// prepare runs every step between info collection and the init swap:
// swap disable, the space check, staging, the unmount plan, and the
// handoff config write.
func prepare(log *slog.Logger, as *assets.Assets, info *migrateinfo.MigrateInfo, opts options.Options) (*layout.Layout, *mgerr.Error) {
	if mgErr := staging.DisableSwap(log); mgErr != nil {
		return nil, mgErr
	}

	req, mgErr := buildRequirement(info)
	if mgErr != nil {
		return nil, mgErr
	}
	free, err := space.ReadMemFree("/proc/meminfo")
	if err != nil {
		return nil, mgerr.Report(log, "read /proc/meminfo: "+err.Error())
	}
	if !space.Check(free, req) {
		return nil, mgerr.NewError(mgerr.InsufficientMem,
			"not enough free memory to stage takeover: free="+space.FormatBytes(free)+
				" required="+space.FormatBytes(req.Bytes()+space.Slack), nil)
	}

	lay, mgErr := staging.New(log, as).Build(info)
	if mgErr != nil {
		return nil, mgErr
	}

	inv, err := blockdev.New()
	if err != nil {
		return nil, mgerr.Report(log, "build block device inventory: "+err.Error())
	}

	flashDevice, mgErr := resolveFlashDevice(log, inv, opts.FlashTo)
	if mgErr != nil {
		return lay, mgErr
	}

	plan := stage2config.BuildUnmountPlan(inv, flashDevice)
	cfg := &stage2config.Config{
		LogDevice:     opts.LogTo,
		LogLevel:      opts.LogLevel,
		FlashDevice:   flashDevice.Path,
		Pretend:       opts.Pretend,
		UmountParts:   plan,
		FlashExternal: opts.FlashExternal,
	}
	if err := cfg.WriteTo(lay.Stage2Config()); err != nil {
		return lay, mgerr.Report(log, "write stage2 config: "+err.Error())
	}

	return lay, nil
}

// resolveFlashDevice returns the root device when flashTo is empty, or
// looks flashTo up in the inventory. A name absent from the inventory is
// MissingInput, per spec.md's E4 scenario.
func resolveFlashDevice(log *slog.Logger, inv *blockdev.Inventory, flashTo string) (*blockdev.Device, *mgerr.Error) {
	if flashTo == "" {
		dev, err := inv.RootDevice()
		if err != nil {
			return nil, mgerr.Report(log, err.Error())
		}
		return dev, nil
	}
	if dev, ok := inv.Get(flashTo); ok {
		return dev, nil
	}
	return nil, mgerr.NewError(mgerr.MissingInput, "flash device not found in inventory: "+flashTo, nil)
}

// cleanup pops info's mount stack in reverse and removes the tmpfs root.
// Best-effort: individual failures are logged and swallowed.
func cleanup(log *slog.Logger, info *migrateinfo.MigrateInfo) {
	mounts := info.Mounts()
	for i := len(mounts) - 1; i >= 0; i-- {
		if err := staging.Unmount(mounts[i].Path); err != nil {
			log.Warn("cleanup: unmount failed", "path", mounts[i].Path, "error", err)
		}
	}
	if info.ToDir != "" {
		if err := os.RemoveAll(info.ToDir); err != nil {
			log.Warn("cleanup: remove tmpfs root failed", "path", info.ToDir, "error", err)
		}
	}
}
