package notify

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultBroadcastWorkers = 8
	recipientTimeout        = 30 * time.Second
)

// Report aggregates the outcome of one broadcast run.
type Report struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}

// Broadcaster drives the Dispatcher across many recipients with bounded
// concurrency. Per-recipient failures are counted, never propagated.
type Broadcaster struct {
	dispatcher *Dispatcher
	workers    int
}

func NewBroadcaster(dispatcher *Dispatcher, workers int) *Broadcaster {
	if workers <= 0 {
		workers = defaultBroadcastWorkers
	}
	return &Broadcaster{dispatcher: dispatcher, workers: workers}
}

// NotifyMany sends one notification per recipient and returns the aggregate
// counts once every recipient has been attempted.
func (b *Broadcaster) NotifyMany(ctx context.Context, userIDs []uint, content, link, typ string) Report {
	var delivered, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(b.workers)
	for _, id := range userIDs {
		id := id
		g.Go(func() error {
			recipientCtx, cancel := context.WithTimeout(ctx, recipientTimeout)
			defer cancel()
			if err := b.dispatcher.Notify(recipientCtx, id, content, link, typ); err != nil {
				log.Printf("[Broadcast] Notify user %d failed: %v", id, err)
				failed.Add(1)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	g.Wait()

	return Report{Delivered: int(delivered.Load()), Failed: int(failed.Load())}
}
