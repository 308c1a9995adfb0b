package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type movieCreateRequest struct {
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Actors []string `json:"actors"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func (s *Server) handleGetAllMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.movies.GetAll(r.Context())
	if err != nil {
		s.logger.Printf("list movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movies")
		return
	}
	s.respondJSON(w, http.StatusOK, movies)
}

func (s *Server) handleCountMovies(w http.ResponseWriter, r *http.Request) {
	count, err := s.movies.CountAll(r.Context())
	if err != nil {
		s.logger.Printf("count movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count movies")
		return
	}
	s.respondJSON(w, http.StatusOK, countResponse{Count: count})
}

func (s *Server) handleGetMovieByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "id must be a positive integer")
		return
	}

	movie, err := s.movies.GetByID(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, "fetch movie by id", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

func (s *Server) handleGetMovieByTitle(w http.ResponseWriter, r *http.Request) {
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.movies.GetByTitle(r.Context(), title)
	if err != nil {
		s.respondLookupError(w, "fetch movie by title", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	movie, err := s.movies.Create(r.Context(), repository.MovieCreateParams{
		Year:   req.Year,
		Title:  req.Title,
		Actors: req.Actors,
	})
	if err != nil {
		var invalid *catalog.ValidationError
		if errors.As(err, &invalid) {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", invalid.Reason)
			return
		}
		s.logger.Printf("create movie error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create movie")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/movie/%d", movie.ID))
	s.respondJSON(w, http.StatusCreated, movie)
}

func (s *Server) handlePopulate(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	movies, err := s.movies.Populate(r.Context())
	if err != nil {
		s.logger.Printf("populate movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to populate movies")
		return
	}
	s.respondJSON(w, http.StatusCreated, movies)
}

func (s *Server) respondLookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.logger.Printf("%s error: %v", op, err)
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

// decodeTitleParam returns the title as sent. chi matches on the decoded
// path unless the request carried an escaped slash, in which case it matches
// on RawPath and the parameter is still escaped.
func decodeTitleParam(r *http.Request) (string, error) {
	title := chi.URLParam(r, "title")
	if title == "" {
		return "", fmt.Errorf("missing title parameter")
	}
	if r.URL.RawPath == "" {
		return title, nil
	}
	title, err := url.PathUnescape(title)
	if err != nil {
		return "", fmt.Errorf("invalid title parameter")
	}
	return title, nil
}

// verifyBearer rejects every request when no token is configured.
func (s *Server) verifyBearer(header string) bool {
	if s.cfg.AuthToken == "" || header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) == 1
}
