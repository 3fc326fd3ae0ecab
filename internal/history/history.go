// Package history persists the search log: one record per successful weather
// query. The log is append-only; duplicate city searches accumulate as
// separate rows by design, since this is an event log, not a directory.
package history

import (
	"context"
	"time"
)

// Entry is one persisted search event.
type Entry struct {
	ID        string    `json:"id" bson:"id"`
	CityName  string    `json:"city_name" bson:"city_name"`
	Country   string    `json:"country" bson:"country"`
	Region    string    `json:"region" bson:"region"`
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Timestamp time.Time `json:"search_timestamp" bson:"search_timestamp"`
	UserIP    string    `json:"user_ip,omitempty" bson:"user_ip,omitempty"`
}

// PopularCity is one group in the popularity aggregation: all searches for
// the same (city, country, region), counted, with the newest timestamp.
type PopularCity struct {
	CityName     string    `json:"city_name" bson:"city_name"`
	Country      string    `json:"country" bson:"country"`
	Region       string    `json:"region" bson:"region"`
	SearchCount  int64     `json:"search_count" bson:"search_count"`
	LastSearched time.Time `json:"last_searched" bson:"last_searched"`
}

// Store is the contract the Mongo store (and the in-memory store used in
// tests) must satisfy.
type Store interface {
	// Record appends one entry. Implementations fill in a generated ID and
	// the current UTC timestamp when those fields are zero.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Popular groups the whole log by (city, country, region) and returns
	// up to limit groups ordered by search count descending.
	Popular(ctx context.Context, limit int) ([]PopularCity, error)

	// Ping reports store connectivity.
	Ping(ctx context.Context) error
}
