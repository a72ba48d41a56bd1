// Package stage2config defines the handoff Stage 1 hands to Stage 2 and its
// serialization, per spec.md §3 and §6.
package stage2config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// UmountPart is one entry of the Stage 2 unmount plan: a mount Stage 2 must
// release, deepest mount point first, before it may write to the flash
// device.
type UmountPart struct {
	DevPath    string `json:"dev_path"`
	MountPoint string `json:"mount_point"`
	FSType     string `json:"fs_type"`
}

// Config is the serialized handoff, written once by Stage 1 and consumed
// once by Stage 2.
type Config struct {
	LogDevice     string       `json:"log_device,omitempty"`
	LogLevel      string       `json:"log_level"`
	FlashDevice   string       `json:"flash_device"`
	Pretend       bool         `json:"pretend"`
	UmountParts   []UmountPart `json:"umount_parts"`
	FlashExternal bool         `json:"flash_external"`
}

// Marshal serializes Config as YAML (ghodss/yaml: JSON struct tags, YAML on
// the wire), the stable textual encoding spec.md §3 leaves to the
// implementation.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal stage2 config: %w", err)
	}
	return out, nil
}

// Unmarshal parses a Config previously produced by Marshal. Stage 2 uses
// this; it is exported from the core so the round-trip property (spec.md §8
// Testable Property 5) can be tested in-process.
func Unmarshal(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal stage2 config: %w", err)
	}
	return &c, nil
}

// WriteTo marshals c and writes it to path.
func (c *Config) WriteTo(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write stage2 config to %q: %w", path, err)
	}
	return nil
}
