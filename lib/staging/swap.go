package staging

import (
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/balena-os/takeover/lib/mgerr"
)

// DisableSwap runs swapoff(8) on every swap area. Both a failure to launch
// the command and a non-zero exit are treated as fatal: continuing with
// active swap risks the kernel paging out pages that will be needed after
// the original root is gone.
func DisableSwap(log *slog.Logger) *mgerr.Error {
	cmd := exec.Command("swapoff", "-a")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return mgerr.Report(log, fmt.Sprintf("swapoff -a failed: %v: %s", err, out))
	}
	log.Info("swap disabled")
	return nil
}
