// Package space implements the Stage 1 space planner (spec.md §4.1): it
// sums the bytes every artifact will occupy in the tmpfs root and compares
// that against free RAM before any mount is made.
package space

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
)

// Slack is the fixed headroom required on top of the itemized budget,
// spec.md §4.1's "fixed slack of 10 MiB".
const Slack = 10 * 1024 * 1024

// Requirement is every input to the budget calculation, one field per
// artifact spec.md §4.1 lists.
type Requirement struct {
	BusyboxSize    int64
	ImageSize      int64
	ConfigSize     int64
	NwmgrSizes     []int64
	CurrentExeSize int64
}

// Bytes sums the required budget: the busybox binary counted twice (once as
// the runtime copy, once as headroom for the shim), the image, the config,
// every network-manager file, the current executable, plus Slack.
func (r Requirement) Bytes() int64 {
	total := r.BusyboxSize*2 + r.ImageSize + r.ConfigSize + r.CurrentExeSize + Slack
	for _, n := range r.NwmgrSizes {
		total += n
	}
	return total
}

// ReadMemFree reads the kernel's memory-info interface and returns
// MemFree in bytes.
func ReadMemFree(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemFree:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed MemFree line in %s: %q", path, line)
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse MemFree in %s: %w", path, err)
		}
		return kb * 1024, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemFree not found in %s", path)
}

// Check compares free against the itemized requirement plus a second Slack
// margin (matching the original implementation: the itemized sum already
// carries one Slack term, and the go/no-go comparison adds a second Slack
// margin on top of that). Returns true when
// there is enough room.
func Check(free int64, req Requirement) bool {
	return free >= req.Bytes()+Slack
}

// FormatBytes renders n as a human-readable size, e.g. "512.0 MB", for log
// lines and error messages (spec.md's format_size_with_unit helper).
func FormatBytes(n int64) string {
	return datasize.ByteSize(n).HR()
}
