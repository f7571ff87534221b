package repository

import (
	"context"
	"fmt"

	"github.com/aiden123456789/Whispers/internal/models"
)

// SaveSubscription stores a push subscription, replacing keys and location of an existing endpoint.
func (r *Repository) SaveSubscription(ctx context.Context, sub models.Subscription) error {
	query := `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint) DO UPDATE
		SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng;
	`

	var lat, lng *float64
	if sub.Location != nil {
		lat, lng = &sub.Location.Latitude, &sub.Location.Longitude
	}

	_, err := r.db.Exec(ctx, query, sub.Endpoint, sub.P256dh, sub.Auth, lat, lng, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}

	return nil
}

// FetchSubscriptions returns every stored push subscription.
func (r *Repository) FetchSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	query := `
		SELECT endpoint, p256dh, auth, lat, lng, created_at
		FROM push_subscriptions
		ORDER BY created_at ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query push subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		var (
			sub      models.Subscription
			lat, lng *float64
		)
		if err = rows.Scan(&sub.Endpoint, &sub.P256dh, &sub.Auth, &lat, &lng, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		if lat != nil && lng != nil {
			sub.Location = &models.Coordinates{Latitude: *lat, Longitude: *lng}
		}
		subs = append(subs, sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return subs, nil
}

// DeleteSubscription removes the subscription with the given endpoint. Unknown endpoints are not an error.
func (r *Repository) DeleteSubscription(ctx context.Context, endpoint string) error {
	query := `
		DELETE FROM push_subscriptions
		WHERE endpoint = $1;
	`

	if _, err := r.db.Exec(ctx, query, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}

	return nil
}
