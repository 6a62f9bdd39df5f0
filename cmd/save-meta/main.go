package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func run() error {
	app := NewApp()

	pflag.BoolVar(&app.withSteam, "with-steam", false, "augment output with Steam-derived meta signals")
	pflag.BoolVar(&app.withStats, "stats", false, "include per-series summary statistics")
	pflag.StringVarP(&app.detectorFile, "detectors", "d", "", "yaml detector table override")
	pflag.DurationVar(&app.steamTimeout, "steam-timeout", 5*time.Second, "timeout for the Steam news request")

	pflag.Parse()

	app.savePath = pflag.Arg(0)

	return app.Run()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
