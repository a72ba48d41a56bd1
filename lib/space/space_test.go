package space

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementBytes(t *testing.T) {
	req := Requirement{
		BusyboxSize:    1_000_000,
		ImageSize:      2_000_000,
		ConfigSize:     4_096,
		NwmgrSizes:     []int64{100, 200},
		CurrentExeSize: 50_000,
	}
	// busybox counted twice, plus everything else, plus Slack.
	want := int64(1_000_000*2+2_000_000+4_096+50_000+100+200) + Slack
	assert.Equal(t, want, req.Bytes())
}

func TestReadMemFree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meminfo")
	content := "MemTotal:       16374212 kB\nMemFree:         1048576 kB\nMemAvailable:    2000000 kB\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	free, err := ReadMemFree(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1048576*1024), free)
}

func TestReadMemFreeMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meminfo")
	require.NoError(t, os.WriteFile(path, []byte("MemTotal: 100 kB\n"), 0o644))

	_, err := ReadMemFree(path)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	req := Requirement{ImageSize: 1000}
	required := req.Bytes()

	assert.False(t, Check(required+Slack-1, req), "one byte short of required+slack should fail")
	assert.True(t, Check(required+Slack, req))
	assert.True(t, Check(required+Slack+1, req))
}

func TestFormatBytes(t *testing.T) {
	assert.NotEmpty(t, FormatBytes(1024))
}
