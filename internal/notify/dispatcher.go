package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/NgocVuuu/film-sub001/internal/models"
	"github.com/NgocVuuu/film-sub001/internal/push"
	"github.com/NgocVuuu/film-sub001/internal/repositories"
)

const defaultSendTimeout = 10 * time.Second

// Dispatcher persists in-app notifications and fans best-effort push delivery
// out to every registered endpoint of the recipient. The durable record is the
// source of truth; push is a latency optimization on top of it.
type Dispatcher struct {
	notifications repositories.NotificationRepository
	subscriptions repositories.PushSubscriptionRepository
	sender        push.Sender
	cfg           push.Config
	sendTimeout   time.Duration
}

// NewDispatcher creates a Dispatcher. A zero sendTimeout falls back to the
// default per-attempt timeout.
func NewDispatcher(
	notifications repositories.NotificationRepository,
	subscriptions repositories.PushSubscriptionRepository,
	sender push.Sender,
	cfg push.Config,
	sendTimeout time.Duration,
) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		notifications: notifications,
		subscriptions: subscriptions,
		sender:        sender,
		cfg:           cfg,
		sendTimeout:   sendTimeout,
	}
}

// Notify writes the notification record, then attempts delivery to each of the
// user's endpoints concurrently. Delivery failures never surface to the
// caller: transient ones are logged and dropped, permanent ones (endpoint
// confirmed gone) prune the matching subscription. The returned error reflects
// only the record write.
func (d *Dispatcher) Notify(ctx context.Context, userID uint, content, link, typ string) error {
	n := &models.Notification{
		RecipientID: userID,
		Content:     content,
		Link:        link,
		Type:        typ,
		CreatedAt:   time.Now(),
	}
	if err := d.notifications.CreateNotification(n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if !d.cfg.Enabled() {
		return nil
	}

	subs, err := d.subscriptions.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("[Push] Error fetching subscriptions for user %d: %v", userID, err)
		return nil
	}
	if len(subs) == 0 {
		return nil
	}

	payload := push.BuildPayload(push.TitleFor(typ), content, link)

	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(sub *models.PushSubscription) {
			defer wg.Done()
			d.deliver(ctx, sub, payload)
		}(&subs[i])
	}
	wg.Wait()

	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub *models.PushSubscription, payload []byte) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	result := d.sender.Send(sendCtx, sub, payload)
	endpoint := push.TruncateEndpoint(sub.Endpoint)

	switch {
	case result.Gone:
		log.Printf("[Push] Endpoint gone (status %d), removing subscription %s", result.StatusCode, endpoint)
		// The delete must outlive a cancelled notify context.
		if err := d.subscriptions.DeleteByEndpoint(context.Background(), sub.Endpoint); err != nil {
			log.Printf("[Push] Error removing dead subscription %s: %v", endpoint, err)
		}
	case result.Err != nil:
		log.Printf("[Push] Failed to send to %s: %v", endpoint, result.Err)
	case result.StatusCode >= 300:
		log.Printf("[Push] Unexpected status %d for %s", result.StatusCode, endpoint)
	}
}
