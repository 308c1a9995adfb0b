package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// PostgresSessions hands out sessions backed by pooled pgx connections.
type PostgresSessions struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a session factory backed by the provided store.
func NewPostgres(st *store.Postgres) *PostgresSessions {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing the factory directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *PostgresSessions {
	return &PostgresSessions{pool: pool}
}

// OpenSession acquires a dedicated connection from the pool.
func (f *PostgresSessions) OpenSession(ctx context.Context) (Session, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgSession{conn: conn}, nil
}

type pgSession struct {
	conn *pgxpool.Conn
}

const pgMovieSelect = `
    SELECT m.id,
           m.year,
           m.title,
           COALESCE(array_agg(a.name ORDER BY a.position) FILTER (WHERE a.name IS NOT NULL), '{}')::text[]
    FROM movies m
    LEFT JOIN movie_actors a ON a.movie_id = m.id
`

func (s *pgSession) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	rows, err := s.conn.Query(ctx, pgMovieSelect+` GROUP BY m.id ORDER BY m.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanPgMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

func (s *pgSession) CountMovies(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *pgSession) GetMovieByID(ctx context.Context, id int64) (domain.Movie, error) {
	row := s.conn.QueryRow(ctx, pgMovieSelect+` WHERE m.id = $1 GROUP BY m.id`, id)
	return scanPgMovieOne(row)
}

func (s *pgSession) GetMovieByTitle(ctx context.Context, title string) (domain.Movie, error) {
	row := s.conn.QueryRow(ctx, pgMovieSelect+` WHERE m.title = $1 GROUP BY m.id ORDER BY m.id LIMIT 1`, title)
	return scanPgMovieOne(row)
}

func (s *pgSession) WithinTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgWriter{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *pgSession) Close() {
	if s.conn == nil {
		return
	}
	s.conn.Release()
	s.conn = nil
}

type pgWriter struct {
	tx pgx.Tx
}

func (w *pgWriter) CreateMovie(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	var id int64
	err := w.tx.QueryRow(ctx, `INSERT INTO movies (year, title) VALUES ($1, $2) RETURNING id`, params.Year, params.Title).Scan(&id)
	if err != nil {
		return domain.Movie{}, err
	}

	if len(params.Actors) > 0 {
		const insertActors = `
            INSERT INTO movie_actors (movie_id, position, name)
            SELECT $1::bigint, a.ord - 1, a.name
            FROM unnest($2::text[]) WITH ORDINALITY AS a(name, ord)
        `
		if _, err := w.tx.Exec(ctx, insertActors, id, params.Actors); err != nil {
			return domain.Movie{}, err
		}
	}
	return newMovie(id, params), nil
}

func (w *pgWriter) DeleteAllMovies(ctx context.Context) (int64, error) {
	tag, err := w.tx.Exec(ctx, `DELETE FROM movies`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPgMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	if err := row.Scan(&movie.ID, &movie.Year, &movie.Title, &movie.Actors); err != nil {
		return domain.Movie{}, err
	}
	if movie.Actors == nil {
		movie.Actors = []string{}
	}
	return movie, nil
}

func scanPgMovieOne(row pgx.Row) (domain.Movie, error) {
	movie, err := scanPgMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}
