package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagenine/internal/catalog"
	"pagenine/internal/config"
	"pagenine/internal/storage"
	"pagenine/internal/tracker"
	"pagenine/pkg/logx"
)

// CheckResult is the outcome of a one-shot catalog lookup.
type CheckResult struct {
	Board       string               `json:"board"`
	Title       string               `json:"title"`
	Found       bool                 `json:"found"`
	Observation *tracker.Observation `json:"observation,omitempty"`
	Threshold   *tracker.Threshold   `json:"threshold,omitempty"`
	// Alert is the notification a running tracker would send for this
	// observation from a fresh state; empty below the alert page.
	Alert string `json:"alert,omitempty"`
}

// Check fetches the catalog once and reports where the thread is. It never
// sends notifications.
func Check(ctx context.Context, cfg *config.Config, src tracker.Source, log logx.Logger) (CheckResult, error) {
	if src == nil {
		src = catalog.NewClient(mapCatalog(cfg), log)
	}
	tc := mapTracker(cfg)
	res := CheckResult{Board: tc.Board, Title: tc.Title}

	cat, err := src.Fetch(ctx, tc.Board, time.Time{})
	if err != nil {
		return res, err
	}
	obs, ok := tracker.FindThread(cat, tc.Title, time.Now())
	if !ok {
		return res, nil
	}
	th := tracker.ThresholdFor(obs)
	res.Found = true
	res.Observation = &obs
	res.Threshold = &th
	if d := tracker.Decide(tracker.State{}, obs, tc.SuppressOnBumpLimit); d.Notify {
		msg, title := tracker.AlertText(obs)
		res.Alert = msg
		if title != "" {
			res.Alert += " " + title
		}
	}
	return res, nil
}

// History lists recent history entries from the configured store.
func History(ctx context.Context, cfg *config.Config, q storage.Query, log logx.Logger) ([]storage.Entry, error) {
	st, err := storage.Open(ctx, mapStorage(cfg), log)
	if errors.Is(err, storage.ErrDisabled) {
		return nil, fmt.Errorf("history needs storage.driver set to sqlite or postgres: %w", err)
	}
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Recent(ctx, q)
}
