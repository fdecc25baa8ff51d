package domain

import "time"

// Organization is a directory entry offering children's activities.
type Organization struct {
	ID          string
	Name        string
	Description string
	District    string
	Address     string
	Lat         *float64
	Lng         *float64
	ManagerID   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FeedbackLabel is a predefined tag users attach to feedback.
type FeedbackLabel struct {
	ID   string
	Name string
}
