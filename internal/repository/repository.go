package repository

import (
	"context"
	"errors"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// SessionFactory opens persistence sessions. One factory is shared by the
// whole process; sessions are short lived.
type SessionFactory interface {
	OpenSession(ctx context.Context) (Session, error)
}

// Session is a unit of work bound to a single connection. Callers must Close
// it; Close is safe to call more than once.
type Session interface {
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	CountMovies(ctx context.Context) (int64, error)
	GetMovieByID(ctx context.Context, id int64) (domain.Movie, error)
	// GetMovieByTitle returns the lowest-id movie with exactly this title.
	GetMovieByTitle(ctx context.Context, title string) (domain.Movie, error)
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Writer) error) error
	Close()
}

// Writer mutates the catalog inside a transaction.
type Writer interface {
	CreateMovie(ctx context.Context, params MovieCreateParams) (domain.Movie, error)
	// DeleteAllMovies removes every movie and its actors. Used for test cleanup.
	DeleteAllMovies(ctx context.Context) (int64, error)
}

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Year   int
	Title  string
	Actors []string
}

func newMovie(id int64, params MovieCreateParams) domain.Movie {
	actors := make([]string, len(params.Actors))
	copy(actors, params.Actors)
	return domain.Movie{ID: id, Year: params.Year, Title: params.Title, Actors: actors}
}
