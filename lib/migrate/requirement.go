package migrate

import (
	"fmt"
	"os"

	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/migrateinfo"
	"github.com/balena-os/takeover/lib/space"
)

// buildRequirement sizes every artifact info will stage, for the space
// planner's free-memory check.
func buildRequirement(info *migrateinfo.MigrateInfo) (space.Requirement, *mgerr.Error) {
	imageSize, err := fileSize(info.Image)
	if err != nil {
		return space.Requirement{}, mgerr.NewError(mgerr.MissingInput, err.Error(), err)
	}
	configSize, err := fileSize(info.Config)
	if err != nil {
		return space.Requirement{}, mgerr.NewError(mgerr.MissingInput, err.Error(), err)
	}

	nwmgrSizes := make([]int64, 0, len(info.NwmgrFiles))
	for _, f := range info.NwmgrFiles {
		sz, err := fileSize(f)
		if err != nil {
			return space.Requirement{}, mgerr.NewError(mgerr.MissingInput, err.Error(), err)
		}
		nwmgrSizes = append(nwmgrSizes, sz)
	}

	exe, err := os.Executable()
	if err != nil {
		return space.Requirement{}, mgerr.NewError(mgerr.MissingInput, "locate current executable: "+err.Error(), err)
	}
	exeSize, err := fileSize(exe)
	if err != nil {
		return space.Requirement{}, mgerr.NewError(mgerr.MissingInput, err.Error(), err)
	}

	return space.Requirement{
		BusyboxSize:    info.Assets.BusyboxSize(),
		ImageSize:      imageSize,
		ConfigSize:     configSize,
		NwmgrSizes:     nwmgrSizes,
		CurrentExeSize: exeSize,
	}, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", path, err)
	}
	return info.Size(), nil
}
