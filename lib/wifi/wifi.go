// Package wifi renders Wi-Fi SSID+PSK records into NetworkManager keyfile
// connection profiles during artifact copying (spec.md §4.3).
//
// Converting some other on-disk Wi-Fi configuration format into SSID+PSK
// records is the external "Wi-Fi configuration converter" collaborator
// named out of scope in spec.md §1; this package only does the rendering
// step MigrateInfo's aggregator is responsible for.
package wifi

import (
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/balena-os/takeover/lib/options"
)

// Render formats rec as a NetworkManager keyfile connection profile. An
// empty PSK renders an open network (no [wifi-security] section).
func Render(rec options.WifiRecord, n int) string {
	out := fmt.Sprintf(`[connection]
id=balena-wifi-%02d
type=wifi

[wifi]
ssid=%s
mode=infrastructure

`, n, rec.SSID)

	if rec.PSK != "" {
		out += fmt.Sprintf(`[wifi-security]
key-mgmt=wpa-psk
psk=%s

`, rec.PSK)
	}

	out += "[ipv4]\nmethod=auto\n\n[ipv6]\nmethod=auto\n"
	return out
}

// WriteFile renders rec and writes it to <dir>/balena-NN, matching the
// network-manager file naming convention so Wi-Fi records continue the same
// counter sequence as copied network-manager files.
func WriteFile(dir string, n int, rec options.WifiRecord) error {
	path, err := securejoin.SecureJoin(dir, fmt.Sprintf("balena-%02d", n))
	if err != nil {
		return fmt.Errorf("resolve wifi profile path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create wifi profile directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Render(rec, n)), 0o600); err != nil {
		return fmt.Errorf("write wifi profile %q: %w", path, err)
	}
	return nil
}
