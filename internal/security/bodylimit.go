package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/inventory-notify/internal/common"
)

const tooLargeMessage = "Cuerpo de la solicitud demasiado grande"

// BodyLimit caps request bodies at Max bytes. Alert payloads may embed HTML, so
// BODY_LIMIT_BYTES defaults to 10MB.
type BodyLimit struct {
	Max int64
}

// Middleware answers 413 for a body over the cap, whether declared by
// Content-Length or discovered while reading. Accepted bodies are buffered so
// handlers see a complete, re-readable payload.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeTooLarge, tooLargeMessage, nil)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, b.Max))
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			common.JSONError(w, http.StatusRequestEntityTooLarge, common.CodeTooLarge, tooLargeMessage, nil)
			return
		case err != nil:
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "Cuerpo de la solicitud inválido", nil)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}
