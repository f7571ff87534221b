package api

import (
	"github.com/aiden123456789/Whispers/internal/clustering"
	"github.com/aiden123456789/Whispers/internal/models"
)

type postWhisperRequest struct {
	Text *string  `json:"text" validate:"required"`
	Lat  *float64 `json:"lat"  validate:"required"`
	Lng  *float64 `json:"lng"  validate:"required"`
}

type subscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth"   validate:"required"`
}

// subscribeRequest is the browser PushSubscription JSON plus an optional location.
type subscribeRequest struct {
	Endpoint string           `json:"endpoint" validate:"required,url"`
	Keys     subscriptionKeys `json:"keys"`
	Lat      *float64         `json:"lat" validate:"omitempty,latitude"`
	Lng      *float64         `json:"lng" validate:"omitempty,longitude"`
}

type pointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type clusterResponse struct {
	Center   pointResponse        `json:"center"`
	Count    int                  `json:"count"`
	Messages []models.WhisperView `json:"messages"`
}

type aroundResponse struct {
	Near []models.WhisperView `json:"near"`
	Far  []clusterResponse    `json:"far"`
}

func whisperViews(whispers []models.Whisper) []models.WhisperView {
	views := make([]models.WhisperView, 0, len(whispers))
	for _, w := range whispers {
		views = append(views, w.View())
	}

	return views
}

func clusterViews(clusters []clustering.Cluster) []clusterResponse {
	res := make([]clusterResponse, 0, len(clusters))
	for _, c := range clusters {
		res = append(res, clusterResponse{
			Center:   pointResponse{Lat: c.Center.Latitude, Lng: c.Center.Longitude},
			Count:    len(c.Whispers),
			Messages: whisperViews(c.Whispers),
		})
	}

	return res
}
