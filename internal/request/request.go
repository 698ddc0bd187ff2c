// Package request holds the decoding helpers shared by every HTTP handler:
// JSON bodies, multipart uploads, path ids and pagination.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	apperrors "github.com/videotube/backend/internal/errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	maxJSONBody = 1 << 20
)

// DecodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.BadRequest("request body too large")
		}
		return apperrors.BadRequest("invalid request body").WithCause(err)
	}
}

// PathUUID parses the named path segment as an id.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid " + name)
	}
	return id, nil
}

// Page is a parsed page/limit pair.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination reads page and limit from the query string. Missing or
// unparsable values fall back to defaults and limit is capped.
func Pagination(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{Page: DefaultPage, Limit: DefaultLimit}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}
	return p
}
