package staging

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// copyDevTree copies the host's /dev tree into dst, used only when
// mounting devtmpfs itself fails. Directories, regular files, device
// nodes and symlinks are preserved; this has no dependency on busybox
// being staged yet, unlike shelling out to `cp -a`.
func copyDevTree(dst string) error {
	const src = "/dev"

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode()&(os.ModeDevice|os.ModeCharDevice) != 0:
			return copyDevNode(path, target, info)
		default:
			if err := copyFile(path, target); err != nil {
				return err
			}
			return os.Chmod(target, info.Mode())
		}
	})
}

// copyDevNode recreates a device node using its raw rdev, preserving
// major/minor numbers the way a real device tree needs.
func copyDevNode(src, dst string, info os.FileInfo) error {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("stat %q: unsupported platform", src)
	}
	mode := uint32(info.Mode().Perm())
	if info.Mode()&os.ModeCharDevice != 0 {
		mode |= syscall.S_IFCHR
	} else {
		mode |= syscall.S_IFBLK
	}
	if err := syscall.Mknod(dst, mode, int(stat.Rdev)); err != nil {
		return fmt.Errorf("mknod %q: %w", dst, err)
	}
	return nil
}
