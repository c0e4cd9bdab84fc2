package client

import (
	"context"
	"encoding/json"
	"fmt"
)

const fallbackTitle = "FilmSub"

// IncomingPush is the payload carried by a host delivery event.
type IncomingPush struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link"`
	Icon      string `json:"icon"`
	Badge     string `json:"badge"`
	Timestamp int64  `json:"timestamp"`
}

// Presenter renders notifications and manages client windows.
type Presenter interface {
	Show(n IncomingPush) error
	// FocusWindow focuses an existing window at url, reporting whether one existed.
	FocusWindow(url string) bool
	OpenWindow(url string) error
}

// Worker reacts to the host's background execution events: push deliveries,
// notification activations and best-effort wake-ups.
type Worker struct {
	presenter  Presenter
	dispatcher *Dispatcher
}

func NewWorker(presenter Presenter, dispatcher *Dispatcher) *Worker {
	return &Worker{presenter: presenter, dispatcher: dispatcher}
}

// HandlePush decodes a delivery event and renders a user-visible notification.
func (w *Worker) HandlePush(data []byte) error {
	var n IncomingPush
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode push payload: %w", err)
	}
	if n.Title == "" {
		n.Title = fallbackTitle
	}
	return w.presenter.Show(n)
}

// HandleActivation focuses an existing window at the notification link,
// opening a new one when none exists.
func (w *Worker) HandleActivation(link string) error {
	if link == "" {
		link = "/"
	}
	if w.presenter.FocusWindow(link) {
		return nil
	}
	return w.presenter.OpenWindow(link)
}

// HandleWake is the best-effort background wake-up: flush pending syncs.
func (w *Worker) HandleWake(ctx context.Context) {
	w.dispatcher.HandleOnline(ctx)
}
