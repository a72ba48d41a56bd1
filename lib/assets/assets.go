// Package assets wraps the embedded, process-wide binary blobs Stage 1
// materializes into the tmpfs root: the busybox binary and the Stage 2
// init shim. Both are immutable for the life of the process (spec.md §9,
// "Global asset store").
package assets

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// busyboxBinary is a statically-linked busybox. The checked-in
// bin/busybox is a placeholder stub; `make assets` overwrites it with a
// real build before a release build, matching the convention for
// init/guest-agent binaries built out-of-band (lib/system/init_binary.go,
// lib/system/guest_agent_binary.go). A minimal real stub is checked in
// here, unlike those, so the module builds without the Makefile step.
//
//go:embed bin/busybox
var busyboxBinary []byte

// Assets is a read-only handle on the embedded blobs, passed by reference
// to whichever component needs to materialize a file.
type Assets struct {
	busybox []byte
}

// Load returns the process-wide Assets. There is exactly one set of
// embedded blobs per binary, so this never fails at runtime.
func Load() *Assets {
	return &Assets{busybox: busyboxBinary}
}

// BusyboxSize returns the size in bytes of the embedded busybox binary, for
// the space planner's required-memory calculation.
func (a *Assets) BusyboxSize() int64 {
	return int64(len(a.busybox))
}

// WriteBusybox materializes busybox at <dir>/busybox, executable, and
// returns its path.
func (a *Assets) WriteBusybox(dir string) (string, error) {
	path := filepath.Join(dir, "busybox")
	if err := os.WriteFile(path, a.busybox, 0o755); err != nil {
		return "", fmt.Errorf("write busybox to %q: %w", path, err)
	}
	return path, nil
}
