// Package blockdev enumerates block devices and their current mount state,
// mirroring spec.md §4.5 and the data model in §3.
//
// The parent relation is a name-based lookup into the same Inventory, never
// a pointer to another Device — a partition's lifetime is governed by the
// Inventory that holds both it and its parent (spec.md §9).
package blockdev

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sysClassBlock = "/sys/class/block"

// MountInfo records where a device is currently mounted.
type MountInfo struct {
	MountPoint string
	FSType     string
}

// Device is one entry of the block-device inventory.
type Device struct {
	Name string // e.g. "sda1"
	Path string // e.g. "/dev/sda1"

	// Parent is the name of the parent disk, set iff Device is a partition.
	Parent string

	// SizeSectors is the device's size in 512-byte sectors, read from
	// /sys/class/block/<name>/size. Supplemental (not in spec.md's Device
	// fields); recorded here only, not logged and not part of Stage2Config.
	SizeSectors uint64

	Mount *MountInfo
}

// IsPartition reports whether Device has a parent disk.
func (d *Device) IsPartition() bool {
	return d.Parent != ""
}

// Inventory is the read-only, built-once mapping of device path to Device,
// plus a reference to the root device: the disk that holds the partition
// mounted at "/" (or the device itself when "/" is not on a partition).
type Inventory struct {
	devices    map[string]*Device // keyed by Device.Path
	rootDevice string              // Device.Path of the root device
}

// Devices returns the full device-path -> Device mapping.
func (inv *Inventory) Devices() map[string]*Device {
	return inv.devices
}

// Get looks up a device by its path (e.g. "/dev/sda").
func (inv *Inventory) Get(path string) (*Device, bool) {
	d, ok := inv.devices[path]
	return d, ok
}

// ByName looks up a device by its bare name (e.g. "sda").
func (inv *Inventory) ByName(name string) (*Device, bool) {
	for _, d := range inv.devices {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// RootDevice returns the root device (see Inventory).
func (inv *Inventory) RootDevice() (*Device, error) {
	d, ok := inv.devices[inv.rootDevice]
	if !ok {
		return nil, fmt.Errorf("root device %q not found in inventory", inv.rootDevice)
	}
	return d, nil
}

// NewFromDevices builds an Inventory directly from a device map, for
// tests that need a deterministic inventory without a real sysfs tree.
func NewFromDevices(devices map[string]*Device, rootDevice string) *Inventory {
	return &Inventory{devices: devices, rootDevice: rootDevice}
}

// New builds the inventory by walking /sys/class/block and /proc/mounts.
func New() (*Inventory, error) {
	entries, err := os.ReadDir(sysClassBlock)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sysClassBlock, err)
	}

	mounts, err := readMounts("/proc/mounts")
	if err != nil {
		return nil, fmt.Errorf("read /proc/mounts: %w", err)
	}

	inv := &Inventory{devices: make(map[string]*Device, len(entries))}

	for _, entry := range entries {
		name := entry.Name()
		dev := &Device{
			Name: name,
			Path: "/dev/" + name,
		}

		if parent, ok := parentOf(name); ok {
			dev.Parent = parent
		}

		if size, err := readSectorSize(name); err == nil {
			dev.SizeSectors = size
		}

		if mi, ok := mounts[dev.Path]; ok {
			mi := mi
			dev.Mount = &mi
			if mi.MountPoint == "/" {
				inv.rootDevice = dev.Path
				if dev.Parent != "" {
					inv.rootDevice = "/dev/" + dev.Parent
				}
			}
		}

		inv.devices[dev.Path] = dev
	}

	if inv.rootDevice == "" {
		return nil, fmt.Errorf("no block device is mounted at /")
	}

	return inv, nil
}

// parentOf derives a partition's parent disk name from the sysfs symlink
// topology: /sys/class/block/<name> resolves to
// .../devices/.../block/<parent>/<name> for a partition, or
// .../devices/.../block/<name> for a whole disk. The directory one level
// above the resolved target's basename tells them apart.
func parentOf(name string) (string, bool) {
	link := filepath.Join(sysClassBlock, name)
	target, err := os.Readlink(link)
	if err != nil {
		return "", false
	}

	abs := filepath.Clean(filepath.Join(sysClassBlock, target))
	parentBase := filepath.Base(filepath.Dir(abs))
	if parentBase == "" || parentBase == name || parentBase == "block" {
		return "", false
	}
	return parentBase, true
}

func readSectorSize(name string) (uint64, error) {
	data, err := os.ReadFile(filepath.Join(sysClassBlock, name, "size"))
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}

// readMounts parses /proc/mounts into device path -> MountInfo.
func readMounts(path string) (map[string]MountInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]MountInfo)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		device, mountPoint, fsType := fields[0], fields[1], fields[2]
		if !strings.HasPrefix(device, "/dev/") {
			continue
		}
		out[device] = MountInfo{MountPoint: mountPoint, FSType: fsType}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
