// Command takeover runs Stage 1 of an in-place OS takeover: it stages a
// RAM-resident root carrying a new OS image and device config, then
// substitutes the running init so the next init transition hands off to
// Stage 2.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/balena-os/takeover/lib/logx"
	"github.com/balena-os/takeover/lib/mgerr"
	"github.com/balena-os/takeover/lib/migrate"
	"github.com/balena-os/takeover/lib/options"
)

// repeatableFlag collects every occurrence of a flag that may be given
// more than once, e.g. --nwmgr-cfg.
type repeatableFlag []string

func (f *repeatableFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *repeatableFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	_ = godotenv.Load()

	image := flag.String("image", "", "OS image file to flash (required)")
	config := flag.String("config", "", "device config file (required)")
	var nwmgrCfg repeatableFlag
	flag.Var(&nwmgrCfg, "nwmgr-cfg", "extra network-manager profile (repeatable)")
	flashTo := flag.String("flash-to", "", "device to flash (default: root device)")
	logTo := flag.String("log-to", "", "persistent log target for stage 2")
	pretend := flag.Bool("pretend", false, "stage 2 simulates flashing")
	flashExternal := flag.Bool("flash-external", false, "flash device is external, passed through to stage 2")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	log := logx.For(logx.New(logx.ParseLevel(*logLevel)), logx.SubsystemOrchestrator)

	opts := options.Options{
		Image:         *image,
		Config:        *config,
		NwmgrCfg:      nwmgrCfg,
		FlashTo:       *flashTo,
		LogTo:         *logTo,
		Pretend:       *pretend,
		FlashExternal: *flashExternal,
		LogLevel:      *logLevel,
	}

	if mgErr := migrate.Stage1(log, opts); mgErr != nil {
		if mgErr.Kind != mgerr.Displayed {
			log.Error(mgErr.Error(), "kind", mgErr.Kind)
		}
		fmt.Fprintln(os.Stderr, "takeover stage 1 failed")
		os.Exit(1)
	}
}
