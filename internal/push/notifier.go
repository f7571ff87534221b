package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aiden123456789/Whispers/internal/clustering"
	"github.com/aiden123456789/Whispers/internal/geo"
	"github.com/aiden123456789/Whispers/internal/metrics"
	"github.com/aiden123456789/Whispers/internal/models"
	"github.com/aiden123456789/Whispers/internal/repository"
)

var welcomeMessage = Message{
	Title: "Subscribed!",
	Body:  "You’ll now get whispers nearby.",
}

const nearbyTitle = "New nearby whisper 💬"

// Notifier stores subscriptions and fans whisper notifications out to the ones nearby.
type Notifier struct {
	log        *slog.Logger
	store      repository.SubscriptionStore
	sender     Sender
	metrics    *metrics.Metrics
	publicKey  string
	numWorkers int
	radius     float64
}

// NewNotifier creates a Notifier. A nil sender stores subscriptions but never delivers.
func NewNotifier(
	log *slog.Logger,
	store repository.SubscriptionStore,
	sender Sender,
	metrics *metrics.Metrics,
	publicKey string,
	numWorkers int,
) *Notifier {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Notifier{
		log:        log,
		store:      store,
		sender:     sender,
		metrics:    metrics,
		publicKey:  publicKey,
		numWorkers: numWorkers,
		radius:     clustering.NearbyRadius,
	}
}

// PublicKey is the VAPID application server key handed to browsers.
func (n *Notifier) PublicKey() string {
	return n.publicKey
}

// Subscribe stores sub and sends the welcome notification. Delivery problems are
// logged, only a failure to store is returned.
func (n *Notifier) Subscribe(ctx context.Context, sub models.Subscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	if err := n.store.SaveSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	n.log.InfoContext(ctx, "Push subscription stored", "has_location", sub.Location != nil)

	if n.sender != nil {
		n.deliver(ctx, sub, welcomeMessage)
	}

	return nil
}

// NotifyNearby sends the whisper text to every subscription registered within the
// nearby radius of it.
func (n *Notifier) NotifyNearby(ctx context.Context, whisper models.Whisper) {
	if n.sender == nil {
		return
	}

	subs, err := n.store.FetchSubscriptions(ctx)
	if err != nil {
		n.log.ErrorContext(ctx, "Failed to fetch subscriptions", "error", err)
		return
	}

	targets := make([]models.Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Location != nil && geo.Within(*sub.Location, whisper.Coordinates(), n.radius) {
			targets = append(targets, sub)
		}
	}
	if len(targets) == 0 {
		return
	}

	n.log.DebugContext(ctx, "Sending nearby notifications", "whisper", whisper.ID, "targets", len(targets))

	msg := Message{Title: nearbyTitle, Body: whisper.Text}
	jobs := make(chan models.Subscription, len(targets))
	var wgr sync.WaitGroup

	for range min(n.numWorkers, len(targets)) {
		wgr.Add(1)
		go func() {
			defer wgr.Done()
			for sub := range jobs {
				n.deliver(ctx, sub, msg)
			}
		}()
	}

	for _, sub := range targets {
		jobs <- sub
	}
	close(jobs)

	wgr.Wait()
}

func (n *Notifier) deliver(ctx context.Context, sub models.Subscription, msg Message) {
	err := n.sender.Send(ctx, sub, msg)
	switch {
	case err == nil:
		n.metrics.PushSent.WithLabelValues("success").Inc()
	case errors.Is(err, ErrSubscriptionGone):
		n.metrics.PushSent.WithLabelValues("gone").Inc()
		n.log.InfoContext(ctx, "Removing expired push subscription")
		if err = n.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			n.log.ErrorContext(ctx, "Failed to delete push subscription", "error", err)
		}
	default:
		n.metrics.PushSent.WithLabelValues("failure").Inc()
		n.log.WarnContext(ctx, "Push delivery failed", "error", err)
	}
}
