// Package options defines the read-only configuration Stage 1 consumes.
//
// Options is assembled by the external CLI layer (cmd/takeover) and never
// mutated once constructed; the core only reads from it.
package options

// WifiRecord is one Wi-Fi network to render into a NetworkManager profile
// during artifact copying. PSK is empty for an open network.
type WifiRecord struct {
	SSID string
	PSK  string
}

// Options is the immutable configuration for a takeover run, mirroring the
// CLI surface in spec.md §6.
type Options struct {
	// Image is the path to the OS image file to flash. Required.
	Image string
	// Config is the path to the device config file. Required.
	Config string
	// NwmgrCfg lists extra NetworkManager profile files to carry over.
	NwmgrCfg []string
	// Wifis lists Wi-Fi networks to render as NetworkManager profiles,
	// numbered after NwmgrCfg in the transfer directory.
	Wifis []WifiRecord
	// FlashTo overrides the flash target device; empty means "root device".
	FlashTo string
	// LogTo names a persistent log device for Stage 2 to write to.
	LogTo string
	// Pretend tells Stage 2 to simulate flashing rather than write the disk.
	Pretend bool
	// FlashExternal is passed through to Stage 2 unmodified.
	FlashExternal bool
	// LogLevel is the textual log level ("debug", "info", "warn", "error").
	LogLevel string
}
