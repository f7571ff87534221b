package models

// Task represents a place labeling task: a stored whisper that still has no place name.
type Task struct {
	ID     int64       // ID is the identifier of the whisper to label.
	Coords Coordinates // Coords is the location to reverse geocode.
}
