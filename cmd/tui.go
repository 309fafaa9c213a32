package cmd

import (
	"go.uber.org/zap"

	"kbsearch/internal/history"
	"kbsearch/internal/search"
	"kbsearch/internal/state"
	"kbsearch/internal/stream"
	"kbsearch/internal/tui"
)

func runTUI() error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.log.Sync()

	store := state.NewStore()
	streamer := stream.NewQueryClient(e.cfg.ServerURL, e.log)

	// History is best-effort: the TUI works without it.
	var recorder search.Recorder
	hist, err := history.Open(e.cfg.HistoryFile)
	if err != nil {
		e.log.Warn("query history unavailable", zap.Error(err))
		hist = nil
	} else {
		recorder = hist
		defer hist.Close()
	}

	controller := search.NewController(streamer, store, recorder, e.log)

	return tui.Run(tui.Deps{
		Store:      store,
		Controller: controller,
		API:        e.api,
		History:    hist,
		ServerURL:  e.cfg.ServerURL,
		Log:        e.log,
	})
}
