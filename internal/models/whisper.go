package models

import "time"

// Whisper is a short anonymous message left at a location.
type Whisper struct {
	ID        int64     // ID is assigned by the store on insert.
	Text      string    // Text is the trimmed message body.
	Latitude  float64   // Latitude where the whisper was left.
	Longitude float64   // Longitude where the whisper was left.
	CreatedAt time.Time // CreatedAt is the moment the whisper was stored.
	Place     string    // Place is the reverse geocoded label, empty until labeled.
}

// Coordinates returns the location of the whisper.
func (w Whisper) Coordinates() Coordinates {
	return Coordinates{Latitude: w.Latitude, Longitude: w.Longitude}
}

// WhisperView is the JSON shape of a whisper on the wire. CreatedAt is in Unix milliseconds.
type WhisperView struct {
	ID        int64   `json:"id"`
	Text      string  `json:"text"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	CreatedAt int64   `json:"createdAt"`
	Place     string  `json:"place,omitempty"`
}

// View converts w to its wire form.
func (w Whisper) View() WhisperView {
	return WhisperView{
		ID:        w.ID,
		Text:      w.Text,
		Latitude:  w.Latitude,
		Longitude: w.Longitude,
		CreatedAt: w.CreatedAt.UnixMilli(),
		Place:     w.Place,
	}
}
