package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/stratai/stellaris-meta/pkg/meta"
	"github.com/stratai/stellaris-meta/pkg/savefile"
	"github.com/stratai/stellaris-meta/pkg/steam"
)

type App struct {
	savePath     string
	withSteam    bool
	withStats    bool
	detectorFile string
	steamTimeout time.Duration

	out io.Writer

	table meta.DetectorTable
}

func NewApp() *App {
	return &App{
		out: os.Stdout,
	}
}

func (a *App) Run() error {
	if a.savePath == "" {
		return errors.New("must provide a save file path")
	}

	if err := a.loadDetectors(); err != nil {
		return errors.Wrap(err, "could not load detector table")
	}

	text, err := savefile.Load(a.savePath)
	if err != nil {
		return errors.Wrap(err, "could not load save text")
	}

	extractor := meta.NewExtractor(a.table)
	signals := extractor.Extract(text, a.withStats)

	if a.withSteam {
		client := steam.NewClient(a.steamTimeout)
		sm, err := client.FetchMeta()
		if err != nil {
			// best effort; the failure rides along in the output
			sm = steam.FailedMeta(err)
		}
		signals.SteamMeta = &sm
	}

	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(signals); err != nil {
		return errors.Wrap(err, "could not encode signals")
	}

	return nil
}

func (a *App) loadDetectors() error {
	if a.detectorFile == "" {
		a.table = meta.DefaultDetectors()
		return nil
	}

	table, err := meta.LoadDetectors(a.detectorFile)
	if err != nil {
		return err
	}

	a.table = table

	return nil
}
