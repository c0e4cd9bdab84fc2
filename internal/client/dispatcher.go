package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	// Reports below this playhead position are noise from barely-started playback.
	minReportSeconds = 5
	// Quiet period that collapses rapid scrubbing into one send per episode.
	defaultDebounce = 2 * time.Second
	// Tag handed to the host when registering a background wake-up.
	syncTag = "progress-sync"
)

// Dispatcher routes progress reports between the network and the durable
// queue: immediate sends while online, queued replay after reconnecting.
type Dispatcher struct {
	queue *Queue
	api   ProgressAPI
	host  Host

	// Background-wake availability is queried once at construction.
	backgroundSync Capability

	debounce time.Duration
	mu       sync.Mutex
	timers   map[string]*time.Timer
}

func NewDispatcher(queue *Queue, api ProgressAPI, host Host) *Dispatcher {
	return &Dispatcher{
		queue:          queue,
		api:            api,
		host:           host,
		backgroundSync: host.BackgroundSync(),
		debounce:       defaultDebounce,
		timers:         make(map[string]*time.Timer),
	}
}

// Report sends p now if the host is online, otherwise parks it in the queue.
// Reports from barely-started playback are dropped entirely.
func (d *Dispatcher) Report(ctx context.Context, p Progress) error {
	if p.CurrentTime < minReportSeconds {
		return nil
	}

	if !d.host.Online() {
		return d.park(p)
	}

	err := d.api.SaveProgress(ctx, p)
	if err == nil {
		return nil
	}
	if !retryable(err) {
		log.Printf("[Sync] Dropping report for %s/%s: %v", p.TitleID, p.EpisodeID, err)
		return nil
	}
	return d.park(p)
}

// park enqueues p and asks the host for a best-effort wake-up to flush it.
func (d *Dispatcher) park(p Progress) error {
	if _, err := d.queue.Enqueue(p); err != nil {
		return fmt.Errorf("enqueue progress: %w", err)
	}
	if d.backgroundSync == Available {
		if err := d.host.RequestBackgroundSync(syncTag); err != nil {
			log.Printf("[Sync] Background sync registration failed: %v", err)
		}
	}
	return nil
}

// Debounce schedules p to be reported after a quiet period, resetting the
// timer for its episode on every call.
func (d *Dispatcher) Debounce(p Progress) {
	key := p.TitleID + "/" + p.EpisodeID

	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.debounce, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		if err := d.Report(context.Background(), p); err != nil {
			log.Printf("[Sync] Debounced report for %s failed: %v", key, err)
		}
	})
}

// Drain replays queued operations sequentially in insertion order. A
// retryable failure leaves the op for the next drain trigger and moves on;
// a permanent rejection discards it.
func (d *Dispatcher) Drain(ctx context.Context) error {
	ops, err := d.queue.ListAll()
	if err != nil {
		return fmt.Errorf("list queued ops: %w", err)
	}

	for _, op := range ops {
		err := d.api.SaveProgress(ctx, op.Progress)
		if err != nil {
			if retryable(err) {
				log.Printf("[Sync] Replay of %s/%s failed, keeping for next drain: %v", op.TitleID, op.EpisodeID, err)
				continue
			}
			log.Printf("[Sync] Replay of %s/%s rejected, dropping: %v", op.TitleID, op.EpisodeID, err)
		}
		if err := d.queue.Remove(op.TitleID, op.EpisodeID, op.Seq); err != nil {
			log.Printf("[Sync] Error removing replayed op %s/%s: %v", op.TitleID, op.EpisodeID, err)
		}
	}
	return nil
}

// HandleOnline is the hook for the host's back-online signal.
func (d *Dispatcher) HandleOnline(ctx context.Context) {
	if err := d.Drain(ctx); err != nil {
		log.Printf("[Sync] Drain after reconnect failed: %v", err)
	}
}
