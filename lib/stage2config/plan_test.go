package stage2config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balena-os/takeover/lib/blockdev"
)

func TestBuildUnmountPlanOrdering(t *testing.T) {
	sda := &blockdev.Device{Name: "sda", Path: "/dev/sda"}
	sda1 := &blockdev.Device{
		Name: "sda1", Path: "/dev/sda1", Parent: "sda",
		Mount: &blockdev.MountInfo{MountPoint: "/", FSType: "ext4"},
	}
	sda2 := &blockdev.Device{
		Name: "sda2", Path: "/dev/sda2", Parent: "sda",
		Mount: &blockdev.MountInfo{MountPoint: "/home", FSType: "ext4"},
	}

	inv := blockdev.NewFromDevices(map[string]*blockdev.Device{
		"/dev/sda":  sda,
		"/dev/sda1": sda1,
		"/dev/sda2": sda2,
	}, "/dev/sda1")

	plan := BuildUnmountPlan(inv, sda)

	require.Len(t, plan, 2)
	assert.Equal(t, "/home", plan[0].MountPoint)
	assert.Equal(t, "/", plan[1].MountPoint)

	for i := 0; i < len(plan); i++ {
		for j := i + 1; j < len(plan); j++ {
			assert.False(t, len(plan[i].MountPoint) < len(plan[j].MountPoint) &&
				plan[j].MountPoint[:len(plan[i].MountPoint)] == plan[i].MountPoint,
				"an earlier entry's mount point must never be a prefix of a later one")
		}
	}
}

func TestBuildUnmountPlanSkipsUnmountedAndUnrelated(t *testing.T) {
	sda := &blockdev.Device{Name: "sda", Path: "/dev/sda"}
	sdb := &blockdev.Device{Name: "sdb", Path: "/dev/sdb"}
	sda1 := &blockdev.Device{Name: "sda1", Path: "/dev/sda1", Parent: "sda"} // not mounted
	sdb1 := &blockdev.Device{
		Name: "sdb1", Path: "/dev/sdb1", Parent: "sdb",
		Mount: &blockdev.MountInfo{MountPoint: "/mnt/other", FSType: "ext4"},
	}

	inv := blockdev.NewFromDevices(map[string]*blockdev.Device{
		"/dev/sda":  sda,
		"/dev/sda1": sda1,
		"/dev/sdb":  sdb,
		"/dev/sdb1": sdb1,
	}, "/dev/sda1")

	plan := BuildUnmountPlan(inv, sda)
	assert.Empty(t, plan)
}

func TestBuildUnmountPlanOrderIndependence(t *testing.T) {
	// Map iteration order varies from run to run; it must not change the
	// resulting order, since the algorithm inserts by prefix search rather
	// than relying on enumeration order.
	sda := &blockdev.Device{Name: "sda", Path: "/dev/sda"}
	parts := []*blockdev.Device{
		{Name: "sda1", Path: "/dev/sda1", Parent: "sda", Mount: &blockdev.MountInfo{MountPoint: "/", FSType: "ext4"}},
		{Name: "sda2", Path: "/dev/sda2", Parent: "sda", Mount: &blockdev.MountInfo{MountPoint: "/home", FSType: "ext4"}},
		{Name: "sda3", Path: "/dev/sda3", Parent: "sda", Mount: &blockdev.MountInfo{MountPoint: "/home/user", FSType: "ext4"}},
	}

	devices := map[string]*blockdev.Device{"/dev/sda": sda}
	for _, p := range parts {
		devices[p.Path] = p
	}
	inv := blockdev.NewFromDevices(devices, "/dev/sda1")

	plan := BuildUnmountPlan(inv, sda)
	require.Len(t, plan, 3)
	assert.Equal(t, []string{"/home/user", "/home", "/"}, []string{
		plan[0].MountPoint, plan[1].MountPoint, plan[2].MountPoint,
	})
}
