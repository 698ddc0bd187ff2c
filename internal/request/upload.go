package request

import (
	"errors"
	"mime/multipart"
	"net/http"

	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/storage"
)

const multipartMemory = 32 << 20

// ParseMultipart parses a multipart/form-data body of at most maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			return apperrors.BadRequest("request must be multipart/form-data")
		case errors.As(err, &tooLarge):
			return apperrors.BadRequest("upload too large")
		default:
			return apperrors.BadRequest("invalid multipart body").WithCause(err)
		}
	}
	return nil
}

// FormFile opens the named part. A missing part returns a nil file and a
// no-op close; callers decide whether the field is required.
func FormFile(r *http.Request, field string) (*storage.File, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, apperrors.BadRequest("invalid " + field + " upload").WithCause(err)
	}

	return fileFromPart(file, header), func() { file.Close() }, nil
}

func fileFromPart(file multipart.File, header *multipart.FileHeader) *storage.File {
	return &storage.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
