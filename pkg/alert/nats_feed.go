package alert

import (
	"context"
	"sync"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/events"
	natsbus "nova-drive-be/pkg/nats"
)

// NATSFeed keeps the latest snapshot published on the bus, by default on
// events.alert.snapshot.
type NATSFeed struct {
	sub     *natsbus.Subscriber
	subject string
	logger  logger.ILogger

	mu     sync.RWMutex
	latest Snapshot
	valid  bool
}

func NewNATSFeed(sub *natsbus.Subscriber, subject string, log logger.ILogger) *NATSFeed {
	if subject == "" {
		subject = natsbus.Subject(events.TypeAlertSnapshot)
	}
	return &NATSFeed{sub: sub, subject: subject, logger: log}
}

func (n *NATSFeed) Start(ctx context.Context) error {
	return n.sub.SubscribeLatest(ctx, n.subject, n.Handle)
}

// Handle stores the snapshot carried by an alert event.
func (n *NATSFeed) Handle(_ context.Context, event events.Event) error {
	snap := FromMap(event.Payload())
	n.mu.Lock()
	n.latest, n.valid = snap, true
	n.mu.Unlock()
	n.logger.Debug("AlertFeed", "Snapshot received", map[string]interface{}{
		"drowsy": snap.Drowsy(),
		"safe":   snap.Safe(),
	})
	return nil
}

func (n *NATSFeed) Current(context.Context) (Snapshot, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.valid {
		return Snapshot{}, ErrNoData
	}
	return n.latest, nil
}
