package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NgocVuuu/film-sub001/internal/models"
	"github.com/NgocVuuu/film-sub001/internal/push"
)

// countingNotificationRepo tracks how many creations run concurrently.
type countingNotificationRepo struct {
	fakeNotificationRepo
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (c *countingNotificationRepo) CreateNotification(n *models.Notification) error {
	cur := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		prev := c.maxInFlight.Load()
		if cur <= prev || c.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return c.fakeNotificationRepo.CreateNotification(n)
}

func broadcastUserIDs(n int) []uint {
	ids := make([]uint, n)
	for i := range ids {
		ids[i] = uint(i + 1)
	}
	return ids
}

func TestNotifyManyDeliversToEveryRecipient(t *testing.T) {
	notifRepo := &fakeNotificationRepo{}
	d := NewDispatcher(notifRepo, &fakeSubscriptionRepo{}, &fakeSender{}, push.Config{}, time.Second)
	b := NewBroadcaster(d, 4)

	report := b.NotifyMany(context.Background(), broadcastUserIDs(50), "maintenance tonight", "", models.NotificationTypeSystem)

	assert.Equal(t, Report{Delivered: 50, Failed: 0}, report)
	assert.Equal(t, 50, notifRepo.count())
}

func TestNotifyManyContainsPerRecipientFailures(t *testing.T) {
	// Every notify fails internally; the broadcast still completes.
	notifRepo := &fakeNotificationRepo{createErr: assert.AnError}
	d := NewDispatcher(notifRepo, &fakeSubscriptionRepo{}, &fakeSender{}, push.Config{}, time.Second)
	b := NewBroadcaster(d, 8)

	report := b.NotifyMany(context.Background(), broadcastUserIDs(500), "oops", "", models.NotificationTypeSystem)

	assert.Equal(t, Report{Delivered: 0, Failed: 500}, report)
}

func TestNotifyManyBoundsConcurrency(t *testing.T) {
	notifRepo := &countingNotificationRepo{}
	d := NewDispatcher(notifRepo, &fakeSubscriptionRepo{}, &fakeSender{}, push.Config{}, time.Second)
	b := NewBroadcaster(d, 4)

	report := b.NotifyMany(context.Background(), broadcastUserIDs(64), "hello", "", models.NotificationTypeSystem)

	require.Equal(t, 64, report.Delivered)
	assert.LessOrEqual(t, notifRepo.maxInFlight.Load(), int64(4))
}

func TestNotifyManyEmptyRecipients(t *testing.T) {
	d := NewDispatcher(&fakeNotificationRepo{}, &fakeSubscriptionRepo{}, &fakeSender{}, push.Config{}, time.Second)
	b := NewBroadcaster(d, 0) // zero falls back to the default worker count

	report := b.NotifyMany(context.Background(), nil, "hello", "", models.NotificationTypeSystem)
	assert.Equal(t, Report{}, report)
}
