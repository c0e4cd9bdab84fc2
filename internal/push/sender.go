package push

import (
	"context"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/NgocVuuu/film-sub001/internal/models"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	StatusCode int
	// Gone marks a permanent failure: the endpoint will never accept messages
	// again and its subscription should be removed.
	Gone bool
	Err  error
}

// Sender delivers an encrypted payload to one subscription endpoint.
type Sender interface {
	Send(ctx context.Context, sub *models.PushSubscription, payload []byte) Result
}

// WebPushSender delivers through the Web Push protocol with VAPID signing.
type WebPushSender struct {
	cfg Config
}

func NewWebPushSender(cfg Config) *WebPushSender {
	return &WebPushSender{cfg: cfg}
}

func (s *WebPushSender) Send(ctx context.Context, sub *models.PushSubscription, payload []byte) Result {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	return Classify(resp.StatusCode)
}

// Classify maps a push service status code onto a delivery outcome. 404 and
// 410 mean the endpoint is confirmed gone.
func Classify(status int) Result {
	r := Result{StatusCode: status}
	if status == http.StatusNotFound || status == http.StatusGone {
		r.Gone = true
	}
	return r
}

// TruncateEndpoint shortens an endpoint URL for logging
func TruncateEndpoint(endpoint string) string {
	if len(endpoint) > 50 {
		return endpoint[:50]
	}
	return endpoint
}
