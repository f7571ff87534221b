package models

import "time"

// Subscription is a browser push subscription.
// Location is optional; subscriptions without one only receive the welcome notification.
type Subscription struct {
	Endpoint  string
	P256dh    string
	Auth      string
	Location  *Coordinates
	CreatedAt time.Time
}
