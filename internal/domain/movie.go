// Package domain holds the catalog entities as the stores persist them.
package domain

// Movie represents the canonical movie entity in the database/service.
// Actors keeps the order in which the names were supplied.
type Movie struct {
	ID     int64
	Year   int
	Title  string
	Actors []string
}
