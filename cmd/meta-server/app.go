package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stratai/stellaris-meta/pkg/meta"
	"github.com/stratai/stellaris-meta/pkg/savefile"
	"github.com/stratai/stellaris-meta/pkg/steam"
)

const shutdownGrace = 5 * time.Second

type App struct {
	listen       string
	detectorFile string
	steamTimeout time.Duration

	logger    *zap.Logger
	extractor *meta.Extractor
	steam     *steam.Client
}

func NewApp() *App {
	return &App{}
}

func (a *App) Prep() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return errors.Wrap(err, "could not build logger")
	}
	a.logger = logger

	table := meta.DefaultDetectors()
	if a.detectorFile != "" {
		table, err = meta.LoadDetectors(a.detectorFile)
		if err != nil {
			return errors.Wrap(err, "could not load detector table")
		}
	}

	a.extractor = meta.NewExtractor(table)
	a.steam = steam.NewClient(a.steamTimeout)

	return nil
}

type ExtractRequest struct {
	SavePath  string `json:"save_path"`
	WithSteam bool   `json:"with_steam"`
	WithStats bool   `json:"with_stats"`
}

type ExtractResponse struct {
	Error   string        `json:"error,omitempty"`
	Signals *meta.Signals `json:"signals,omitempty"`
}

func (a *App) writeJSON(w http.ResponseWriter, code int, resp ExtractResponse) {
	w.Header().Add("Content-type", "application/json")
	w.WriteHeader(code)

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(resp); err != nil {
		a.logger.Error("could not encode response", zap.Error(err))
	}
}

func (a *App) handleExtract(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if r.Method != http.MethodPost {
		a.writeJSON(w, http.StatusMethodNotAllowed, ExtractResponse{Error: "method not allowed"})
		return
	}

	req := ExtractRequest{}
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, ExtractResponse{Error: err.Error()})
		return
	}

	if req.SavePath == "" {
		a.writeJSON(w, http.StatusBadRequest, ExtractResponse{Error: "must specify save_path"})
		return
	}

	text, err := savefile.Load(req.SavePath)
	if err != nil {
		a.logger.Warn("could not load save text", zap.String("save_path", req.SavePath), zap.Error(err))
		a.writeJSON(w, http.StatusNotFound, ExtractResponse{Error: errors.Wrap(err, "could not load save text").Error()})
		return
	}

	signals := a.extractor.Extract(text, req.WithStats)

	if req.WithSteam {
		sm, err := a.steam.FetchMeta()
		if err != nil {
			a.logger.Warn("steam meta fetch failed", zap.Error(err))
			sm = steam.FailedMeta(err)
		}
		signals.SteamMeta = &sm
	}

	a.logger.Info("extracted save meta",
		zap.String("save_path", req.SavePath),
		zap.Bool("with_steam", req.WithSteam),
	)

	a.writeJSON(w, http.StatusOK, ExtractResponse{Signals: &signals})
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) Serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/extract", a.handleExtract)
	mux.HandleFunc("/healthz", a.handleHealthz)

	srv := &http.Server{
		Addr:    a.listen,
		Handler: mux,
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		a.logger.Info("listening", zap.String("addr", a.listen))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
