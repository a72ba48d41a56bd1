// Package initswap performs the point-of-no-return step: bind-mounting
// the Stage 2 shim over the running init and asking init to re-exec.
package initswap

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/balena-os/takeover/lib/assets"
	"github.com/balena-os/takeover/lib/layout"
	"github.com/balena-os/takeover/lib/mgerr"
)

// Swapper performs the init substitution.
type Swapper struct {
	log    *slog.Logger
	assets *assets.Assets
}

// New returns a Swapper.
func New(log *slog.Logger, as *assets.Assets) *Swapper {
	return &Swapper{log: log, assets: as}
}

// Swap reads the controlling tty and the running init's path, writes the
// Stage 2 shim into the tmpfs root, changes the working directory into
// it, and bind-mounts the shim over init. From the bind-mount onward the
// machine will run our shim at the next init transition regardless of
// what happens afterward.
func (s *Swapper) Swap(lay *layout.Layout) *mgerr.Error {
	tty, err := os.Readlink("/proc/self/fd/1")
	if err != nil {
		return mgerr.Report(s.log, fmt.Sprintf("resolve controlling tty: %v", err))
	}

	oldInit, err := os.Readlink("/proc/1/exe")
	if err != nil {
		return mgerr.Report(s.log, fmt.Sprintf("resolve running init: %v", err))
	}

	newInit := lay.InitShimPath(filepath.Base(oldInit))
	if err := s.assets.WriteStage2Shim(newInit, tty, lay.Takeover(), lay.Stage2Config()); err != nil {
		return mgerr.Report(s.log, fmt.Sprintf("write stage2 shim: %v", err))
	}

	if err := os.Chdir(lay.Root()); err != nil {
		return mgerr.Report(s.log, fmt.Sprintf("chdir to %q: %v", lay.Root(), err))
	}

	if err := unix.Mount(newInit, oldInit, "", unix.MS_BIND, ""); err != nil {
		return mgerr.Report(s.log, fmt.Sprintf("bind-mount %q over %q: %v", newInit, oldInit, err))
	}
	s.log.Info("init bind-mounted, point of no return", "old_init", oldInit, "shim", newInit)

	if out, err := exec.Command("telinit", "u").CombinedOutput(); err != nil {
		// The bind-mount already succeeded: the next init transition will
		// run our shim regardless. Report but do not unwind.
		s.log.Error("telinit u failed, bind-mount still in effect", "error", err, "output", string(out))
	}

	return nil
}
