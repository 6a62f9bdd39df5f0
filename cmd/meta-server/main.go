package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func run() error {
	app := NewApp()

	pflag.StringVarP(&app.listen, "listen", "l", ":8080", "listen address")
	pflag.StringVarP(&app.detectorFile, "detectors", "d", "", "yaml detector table override")
	pflag.DurationVar(&app.steamTimeout, "steam-timeout", 5*time.Second, "timeout for the Steam news request")

	pflag.Parse()

	if err := app.Prep(); err != nil {
		return err
	}

	return app.Serve()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
