package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// SQLiteSessions hands out sessions backed by dedicated database/sql connections.
type SQLiteSessions struct {
	db *sql.DB
}

// NewSQLite constructs a session factory backed by the provided store.
func NewSQLite(st *store.SQLite) *SQLiteSessions {
	return NewWithDB(st.DB())
}

// NewWithDB allows constructing the factory directly from a *sql.DB.
func NewWithDB(db *sql.DB) *SQLiteSessions {
	return &SQLiteSessions{db: db}
}

// OpenSession reserves one connection for the lifetime of the session.
func (f *SQLiteSessions) OpenSession(ctx context.Context) (Session, error) {
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqliteSession{conn: conn}, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type sqliteSession struct {
	conn *sql.Conn
}

func (s *sqliteSession) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, year, title FROM movies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	movies := make([]domain.Movie, 0)
	index := make(map[int64]int)
	for rows.Next() {
		movie := domain.Movie{Actors: []string{}}
		if err := rows.Scan(&movie.ID, &movie.Year, &movie.Title); err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[movie.ID] = len(movies)
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	actorRows, err := s.conn.QueryContext(ctx, `SELECT movie_id, name FROM movie_actors ORDER BY movie_id, position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = actorRows.Close() }()
	for actorRows.Next() {
		var (
			movieID int64
			name    string
		)
		if err := actorRows.Scan(&movieID, &name); err != nil {
			return nil, err
		}
		if i, ok := index[movieID]; ok {
			movies[i].Actors = append(movies[i].Actors, name)
		}
	}
	if err := actorRows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}

func (s *sqliteSession) CountMovies(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *sqliteSession) GetMovieByID(ctx context.Context, id int64) (domain.Movie, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT id, year, title FROM movies WHERE id = ?`, id)
	return loadSQLiteMovie(ctx, s.conn, row)
}

func (s *sqliteSession) GetMovieByTitle(ctx context.Context, title string) (domain.Movie, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT id, year, title FROM movies WHERE title = ? ORDER BY id LIMIT 1`, title)
	return loadSQLiteMovie(ctx, s.conn, row)
}

func (s *sqliteSession) WithinTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqliteWriter{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteSession) Close() {
	if s.conn == nil {
		return
	}
	_ = s.conn.Close()
	s.conn = nil
}

type sqliteWriter struct {
	tx *sql.Tx
}

func (w *sqliteWriter) CreateMovie(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	res, err := w.tx.ExecContext(ctx, `INSERT INTO movies (year, title) VALUES (?, ?)`, params.Year, params.Title)
	if err != nil {
		return domain.Movie{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Movie{}, err
	}
	for pos, name := range params.Actors {
		if _, err := w.tx.ExecContext(ctx, `INSERT INTO movie_actors (movie_id, position, name) VALUES (?, ?, ?)`, id, pos, name); err != nil {
			return domain.Movie{}, err
		}
	}
	return newMovie(id, params), nil
}

func (w *sqliteWriter) DeleteAllMovies(ctx context.Context) (int64, error) {
	if _, err := w.tx.ExecContext(ctx, `DELETE FROM movie_actors`); err != nil {
		return 0, err
	}
	res, err := w.tx.ExecContext(ctx, `DELETE FROM movies`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func loadSQLiteMovie(ctx context.Context, q queryer, row *sql.Row) (domain.Movie, error) {
	movie := domain.Movie{Actors: []string{}}
	if err := row.Scan(&movie.ID, &movie.Year, &movie.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}

	rows, err := q.QueryContext(ctx, `SELECT name FROM movie_actors WHERE movie_id = ? ORDER BY position`, movie.ID)
	if err != nil {
		return domain.Movie{}, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return domain.Movie{}, err
		}
		movie.Actors = append(movie.Actors, name)
	}
	if err := rows.Err(); err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
