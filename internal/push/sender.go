package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/goccy/go-json"

	"github.com/aiden123456789/Whispers/internal/models"
)

// defaultTTL is how long, in seconds, the push service keeps an undelivered message.
const defaultTTL = 12 * 60 * 60

// ErrSubscriptionGone is returned when the push service reports that the subscription
// no longer exists (404 or 410). The caller should forget it.
var ErrSubscriptionGone = errors.New("push subscription expired or unsubscribed")

// Message is the JSON payload the service worker turns into a notification.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender delivers one message to one subscription.
type Sender interface {
	Send(ctx context.Context, sub models.Subscription, msg Message) error
}

// VAPIDConfig identifies this application server to push services.
type VAPIDConfig struct {
	Subject    string // mailto: or https: contact
	PublicKey  string
	PrivateKey string
}

// Configured reports whether both keys are present.
func (c VAPIDConfig) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// WebPushSender sends encrypted Web Push messages signed with VAPID.
type WebPushSender struct {
	vapid  VAPIDConfig
	client webpush.HTTPClient
}

// NewWebPushSender creates a sender. A nil client uses http.DefaultClient.
// webpush-go prefixes every non https subject with "mailto:", so a configured
// "mailto:" prefix is dropped here.
func NewWebPushSender(vapid VAPIDConfig, client webpush.HTTPClient) *WebPushSender {
	if client == nil {
		client = http.DefaultClient
	}
	vapid.Subject = strings.TrimPrefix(vapid.Subject, "mailto:")

	return &WebPushSender{vapid: vapid, client: client}
}

// Send encrypts msg for sub and posts it to the subscription endpoint.
func (s *WebPushSender) Send(ctx context.Context, sub models.Subscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{Auth: sub.Auth, P256dh: sub.P256dh},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.vapid.Subject,
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             defaultTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push service returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
