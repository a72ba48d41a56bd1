package staging

import (
	"fmt"
	"io"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/balena-os/takeover/lib/layout"
	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/migrateinfo"
	"github.com/balena-os/takeover/lib/wifi"
)

// copyArtifacts stages every file Stage 2 needs under the tmpfs root, in
// the order named for artifact copying: busybox, image, config,
// network-manager files, Wi-Fi profiles continuing the same counter, then
// the currently running executable.
func (b *Builder) copyArtifacts(lay *layout.Layout, info *migrateinfo.MigrateInfo) *mgerr.Error {
	if _, err := b.assets.WriteBusybox(lay.Root()); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("stage busybox: %v", err))
	}

	if err := os.MkdirAll(lay.Transfer(), 0o755); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("create %q: %v", lay.Transfer(), err))
	}

	if err := copyFile(info.Image, lay.TransferImage()); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("copy image %q: %v", info.Image, err))
	}
	if err := copyFile(info.Config, lay.TransferConfig()); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("copy config %q: %v", info.Config, err))
	}

	connDir := lay.SystemConnectionsDir()
	if err := os.MkdirAll(connDir, 0o755); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("create %q: %v", connDir, err))
	}

	n := 1
	for _, nwmgr := range info.NwmgrFiles {
		dst, err := securejoin.SecureJoin(connDir, fmt.Sprintf("balena-%02d", n))
		if err != nil {
			return mgerr.Report(b.log, fmt.Sprintf("resolve network profile path: %v", err))
		}
		if err := copyFile(nwmgr, dst); err != nil {
			return mgerr.Report(b.log, fmt.Sprintf("copy network profile %q: %v", nwmgr, err))
		}
		n++
	}
	for _, rec := range info.Wifis {
		if err := wifi.WriteFile(connDir, n, rec); err != nil {
			return mgerr.Report(b.log, fmt.Sprintf("write wifi profile %d: %v", n, err))
		}
		n++
	}

	exe, err := os.Executable()
	if err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("locate current executable: %v", err))
	}
	if err := copyFile(exe, lay.Takeover()); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("copy current executable: %v", err))
	}
	if err := os.Chmod(lay.Takeover(), 0o755); err != nil {
		return mgerr.Report(b.log, fmt.Sprintf("chmod %q: %v", lay.Takeover(), err))
	}

	return nil
}

// copyFile copies src to dst byte-for-byte; any failure is fatal to the
// caller (spec's "any failure is fatal" for artifact copying).
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	return out.Close()
}
