// Package catalog is the single access point to movie persistence. Each
// operation opens its own session and releases it before returning.
package catalog

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/dto"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// ErrInvalidMovie is returned by Create when the input cannot be stored.
var ErrInvalidMovie = errors.New("catalog: invalid movie")

// ValidationError carries the reason a movie was rejected. It matches
// ErrInvalidMovie with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrInvalidMovie.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidMovie
}

// Facade exposes list/count/lookup/seed operations over a session factory.
type Facade struct {
	sessions repository.SessionFactory
	logger   *log.Logger
}

// New builds a facade. The factory is fixed for the facade's lifetime.
func New(sessions repository.SessionFactory, logger *log.Logger) *Facade {
	if logger == nil {
		logger = log.Default()
	}
	return &Facade{sessions: sessions, logger: logger}
}

// SampleMovies returns the movies inserted by Populate.
func SampleMovies() []repository.MovieCreateParams {
	return []repository.MovieCreateParams{
		{Year: 1988, Title: "Die Hard I", Actors: []string{"Bruce Willis", "Alan Rickman", "Paul Gleeson"}},
		{Year: 1982, Title: "Rambo - First Blood", Actors: []string{"Sly Stallone", "Brian Dennehy", "Jack Starrett"}},
	}
}

// GetAll returns every stored movie ordered by id.
func (f *Facade) GetAll(ctx context.Context) ([]dto.Movie, error) {
	session, err := f.sessions.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	movies, err := session.ListMovies(ctx)
	if err != nil {
		return nil, err
	}
	return dto.FromMovies(movies), nil
}

// CountAll returns the number of stored movies.
func (f *Facade) CountAll(ctx context.Context) (int64, error) {
	session, err := f.sessions.OpenSession(ctx)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	return session.CountMovies(ctx)
}

// GetByID returns repository.ErrNotFound when no movie has the id.
func (f *Facade) GetByID(ctx context.Context, id int64) (dto.Movie, error) {
	session, err := f.sessions.OpenSession(ctx)
	if err != nil {
		return dto.Movie{}, err
	}
	defer session.Close()

	movie, err := session.GetMovieByID(ctx, id)
	if err != nil {
		return dto.Movie{}, err
	}
	return dto.FromMovie(movie), nil
}

// GetByTitle matches the title exactly. With duplicates the lowest id wins.
func (f *Facade) GetByTitle(ctx context.Context, title string) (dto.Movie, error) {
	session, err := f.sessions.OpenSession(ctx)
	if err != nil {
		return dto.Movie{}, err
	}
	defer session.Close()

	movie, err := session.GetMovieByTitle(ctx, title)
	if err != nil {
		return dto.Movie{}, err
	}
	return dto.FromMovie(movie), nil
}

// Populate inserts SampleMovies in one transaction and returns them as stored.
func (f *Facade) Populate(ctx context.Context) ([]dto.Movie, error) {
	return f.insert(ctx, SampleMovies()...)
}

// Create stores a single movie with its actors. Names are trimmed, and
// blank names or a non-positive year fail with *ValidationError before any
// session is opened.
func (f *Facade) Create(ctx context.Context, params repository.MovieCreateParams) (dto.Movie, error) {
	params, err := normalize(params)
	if err != nil {
		return dto.Movie{}, err
	}
	movies, err := f.insert(ctx, params)
	if err != nil {
		return dto.Movie{}, err
	}
	return movies[0], nil
}

func normalize(params repository.MovieCreateParams) (repository.MovieCreateParams, error) {
	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" {
		return params, &ValidationError{Reason: "title is required"}
	}
	if params.Year <= 0 {
		return params, &ValidationError{Reason: "year must be positive"}
	}
	actors := make([]string, 0, len(params.Actors))
	for _, name := range params.Actors {
		name = strings.TrimSpace(name)
		if name == "" {
			return params, &ValidationError{Reason: "actor names cannot be empty"}
		}
		actors = append(actors, name)
	}
	params.Actors = actors
	return params, nil
}

func (f *Facade) insert(ctx context.Context, params ...repository.MovieCreateParams) ([]dto.Movie, error) {
	session, err := f.sessions.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	created := make([]dto.Movie, 0, len(params))
	err = session.WithinTx(ctx, func(w repository.Writer) error {
		for _, p := range params {
			movie, err := w.CreateMovie(ctx, p)
			if err != nil {
				return err
			}
			created = append(created, dto.FromMovie(movie))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	f.logger.Printf("catalog: stored %d movie(s)", len(created))
	return created, nil
}
