// Package dto holds the wire representation of catalog entities.
package dto

import (
	"slices"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// Movie is the JSON projection of domain.Movie returned by the API.
type Movie struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Actors []string `json:"actors"`
}

// FromMovie maps a stored movie to its DTO. The actor slice is copied so the
// DTO never aliases entity state.
func FromMovie(m domain.Movie) Movie {
	actors := make([]string, len(m.Actors))
	copy(actors, m.Actors)
	return Movie{
		ID:     m.ID,
		Title:  m.Title,
		Year:   m.Year,
		Actors: actors,
	}
}

// FromMovies maps every movie, preserving order. A nil input yields an empty slice.
func FromMovies(movies []domain.Movie) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		out = append(out, FromMovie(m))
	}
	return out
}

// Equal compares by value. Actor names are compared as a multiset.
func (m Movie) Equal(other Movie) bool {
	if m.ID != other.ID || m.Title != other.Title || m.Year != other.Year {
		return false
	}
	if len(m.Actors) != len(other.Actors) {
		return false
	}
	a := slices.Clone(m.Actors)
	b := slices.Clone(other.Actors)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// SameMovies reports whether both lists hold equal movies, ignoring order.
func SameMovies(a, b []Movie) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for i, y := range b {
			if !used[i] && x.Equal(y) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}
