package repository

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

var (
	dieHardParams = MovieCreateParams{Year: 1988, Title: "Die Hard I", Actors: []string{"Bruce Willis", "Alan Rickman", "Paul Gleeson"}}
	ramboParams   = MovieCreateParams{Year: 1982, Title: "Rambo - First Blood", Actors: []string{"Sly Stallone", "Brian Dennehy", "Jack Starrett"}}
)

// resetWith clears the catalog and inserts params in one transaction.
func resetWith(t testing.TB, factory SessionFactory, params ...MovieCreateParams) []domain.Movie {
	t.Helper()
	ctx := context.Background()
	session, err := factory.OpenSession(ctx)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()

	var created []domain.Movie
	err = session.WithinTx(ctx, func(w Writer) error {
		if _, err := w.DeleteAllMovies(ctx); err != nil {
			return err
		}
		for _, p := range params {
			movie, err := w.CreateMovie(ctx, p)
			if err != nil {
				return err
			}
			created = append(created, movie)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reset catalog: %v", err)
	}
	return created
}

func sameMovie(a, b domain.Movie) bool {
	return a.ID == b.ID && a.Year == b.Year && a.Title == b.Title && slices.Equal(a.Actors, b.Actors)
}

// runSessionContract exercises every Session and Writer operation against one provider.
func runSessionContract(t *testing.T, factory SessionFactory) {
	ctx := context.Background()

	t.Run("list and count", func(t *testing.T) {
		created := resetWith(t, factory, dieHardParams, ramboParams)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		movies, err := session.ListMovies(ctx)
		if err != nil {
			t.Fatalf("ListMovies: %v", err)
		}
		if len(movies) != 2 {
			t.Fatalf("ListMovies len = %d, want 2", len(movies))
		}
		for i := range created {
			if !sameMovie(movies[i], created[i]) {
				t.Fatalf("movie %d = %+v, want %+v", i, movies[i], created[i])
			}
		}

		count, err := session.CountMovies(ctx)
		if err != nil {
			t.Fatalf("CountMovies: %v", err)
		}
		if count != 2 {
			t.Fatalf("CountMovies = %d, want 2", count)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		resetWith(t, factory)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		movies, err := session.ListMovies(ctx)
		if err != nil {
			t.Fatalf("ListMovies: %v", err)
		}
		if movies == nil || len(movies) != 0 {
			t.Fatalf("ListMovies = %#v, want empty slice", movies)
		}
		count, err := session.CountMovies(ctx)
		if err != nil {
			t.Fatalf("CountMovies: %v", err)
		}
		if count != 0 {
			t.Fatalf("CountMovies = %d, want 0", count)
		}
	})

	t.Run("lookup by id and title", func(t *testing.T) {
		created := resetWith(t, factory, dieHardParams, ramboParams)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		byID, err := session.GetMovieByID(ctx, created[0].ID)
		if err != nil {
			t.Fatalf("GetMovieByID: %v", err)
		}
		if !sameMovie(byID, created[0]) {
			t.Fatalf("GetMovieByID = %+v, want %+v", byID, created[0])
		}

		byTitle, err := session.GetMovieByTitle(ctx, "Rambo - First Blood")
		if err != nil {
			t.Fatalf("GetMovieByTitle: %v", err)
		}
		if !sameMovie(byTitle, created[1]) {
			t.Fatalf("GetMovieByTitle = %+v, want %+v", byTitle, created[1])
		}

		if _, err := session.GetMovieByID(ctx, created[1].ID+1000); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetMovieByID missing err = %v, want ErrNotFound", err)
		}
		if _, err := session.GetMovieByTitle(ctx, "die hard i"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("title match must be exact, got %v", err)
		}
	})

	t.Run("duplicate titles resolve to lowest id", func(t *testing.T) {
		remake := MovieCreateParams{Year: 2030, Title: dieHardParams.Title, Actors: []string{"Someone New"}}
		created := resetWith(t, factory, dieHardParams, remake)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		got, err := session.GetMovieByTitle(ctx, dieHardParams.Title)
		if err != nil {
			t.Fatalf("GetMovieByTitle: %v", err)
		}
		if got.ID != created[0].ID || got.Year != 1988 {
			t.Fatalf("GetMovieByTitle = %+v, want id %d", got, created[0].ID)
		}
	})

	t.Run("movie without actors", func(t *testing.T) {
		created := resetWith(t, factory, MovieCreateParams{Year: 1927, Title: "Metropolis"})

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		got, err := session.GetMovieByID(ctx, created[0].ID)
		if err != nil {
			t.Fatalf("GetMovieByID: %v", err)
		}
		if got.Actors == nil || len(got.Actors) != 0 {
			t.Fatalf("Actors = %#v, want empty slice", got.Actors)
		}
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		resetWith(t, factory)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		boom := errors.New("boom")
		err = session.WithinTx(ctx, func(w Writer) error {
			if _, err := w.CreateMovie(ctx, dieHardParams); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithinTx err = %v, want boom", err)
		}

		count, err := session.CountMovies(ctx)
		if err != nil {
			t.Fatalf("CountMovies: %v", err)
		}
		if count != 0 {
			t.Fatalf("CountMovies after rollback = %d, want 0", count)
		}
	})

	t.Run("store rejects empty title", func(t *testing.T) {
		resetWith(t, factory)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		err = session.WithinTx(ctx, func(w Writer) error {
			if _, err := w.CreateMovie(ctx, ramboParams); err != nil {
				return err
			}
			_, err := w.CreateMovie(ctx, MovieCreateParams{Year: 2000, Title: ""})
			return err
		})
		if err == nil {
			t.Fatalf("expected check constraint violation")
		}
		count, err := session.CountMovies(ctx)
		if err != nil {
			t.Fatalf("CountMovies: %v", err)
		}
		if count != 0 {
			t.Fatalf("partial insert survived: count = %d", count)
		}
	})

	t.Run("delete all reports rows", func(t *testing.T) {
		resetWith(t, factory, dieHardParams, ramboParams)

		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		defer session.Close()

		var deleted int64
		err = session.WithinTx(ctx, func(w Writer) error {
			var err error
			deleted, err = w.DeleteAllMovies(ctx)
			return err
		})
		if err != nil {
			t.Fatalf("DeleteAllMovies: %v", err)
		}
		if deleted != 2 {
			t.Fatalf("deleted = %d, want 2", deleted)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		session, err := factory.OpenSession(ctx)
		if err != nil {
			t.Fatalf("open session: %v", err)
		}
		session.Close()
		session.Close()
	})
}
