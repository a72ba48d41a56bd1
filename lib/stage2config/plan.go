package stage2config

import (
	"strings"

	"github.com/samber/lo"

	"github.com/balena-os/takeover/lib/blockdev"
)

// BuildUnmountPlan walks every device in inv and emits an UmountPart for
// each currently-mounted partition of flashDevice, per spec.md §4.6.
//
// Ordering invariant: if mount point A is a prefix of mount point B, B
// appears before A. The walk inserts each new entry immediately before the
// first existing entry whose mount point has the new entry's mount point as
// a prefix (or appends if none has), which keeps ancestors ahead of their
// descendants, then reverses the whole list so the deepest mounts come
// first.
func BuildUnmountPlan(inv *blockdev.Inventory, flashDevice *blockdev.Device) []UmountPart {
	var parts []UmountPart

	for _, dev := range inv.Devices() {
		if dev.Parent != flashDevice.Name {
			continue
		}
		if dev.Mount == nil {
			continue
		}

		part := UmountPart{
			DevPath:    dev.Path,
			MountPoint: dev.Mount.MountPoint,
			FSType:     dev.Mount.FSType,
		}

		inserted := false
		for idx, existing := range parts {
			if strings.HasPrefix(existing.MountPoint, part.MountPoint) {
				parts = append(parts[:idx], append([]UmountPart{part}, parts[idx:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			parts = append(parts, part)
		}
	}

	return lo.Reverse(parts)
}
