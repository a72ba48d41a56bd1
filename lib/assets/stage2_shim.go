package assets

import (
	"fmt"
	"os"
)

// stage2ShimTemplate is the Stage 2 init shim: once bind-mounted over the
// real init, it is what the kernel executes at the next init transition.
// It redirects output to the operator's original controlling terminal and
// then execs the `takeover` binary staged in the tmpfs root with --stage2
// and the path of the handoff config written alongside it. cmd/takeover in
// this module defines no --stage2 flag; Stage 2 is not implemented here.
//
// Generated with plain fmt.Sprintf, not a templating engine — only the tty
// path, the staged takeover binary's path and the handoff config path
// vary, following the teacher's
// GenerateInitScript approach (lib/system/init_script.go) of a single
// formatted string rather than text/template.
const stage2ShimTemplate = `#!/bin/sh
# Stage 2 init shim, bind-mounted over the host's original init.
# Installed by takeover; see takeover's Stage 1 documentation.
exec >%[1]s 2>&1
echo "takeover: stage 2 init starting"
exec %[2]s --stage2 --config %[3]s
`

// WriteStage2Shim renders the Stage 2 shim and writes it, executable, to
// path. tty is the operator's controlling terminal (read from
// /proc/self/fd/1), takeoverBinary is the path the current executable was
// copied to in the tmpfs root, and stage2ConfigPath is where the handoff
// config was written.
func (a *Assets) WriteStage2Shim(path, tty, takeoverBinary, stage2ConfigPath string) error {
	script := fmt.Sprintf(stage2ShimTemplate, tty, takeoverBinary, stage2ConfigPath)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return fmt.Errorf("write stage2 shim to %q: %w", path, err)
	}
	return nil
}
