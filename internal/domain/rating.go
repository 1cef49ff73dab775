package domain

import "time"

// Rating is an append-only janitor score between 1 and 5.
type Rating struct {
	ID          string
	UserID      string
	Floor       int
	JanitorType JanitorType
	Rating      int
	CreatedAt   time.Time
}

// RatingAggregate is the mean and count of ratings for one floor duty.
type RatingAggregate struct {
	Floor       int         `json:"floor"`
	JanitorType JanitorType `json:"janitorType"`
	Average     float64     `json:"average"`
	Count       int         `json:"count"`
}
