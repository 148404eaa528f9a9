// Package middleware holds router-level handlers shared by every route group.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/noah-isme/inventory-notify/internal/common"
)

// Recoverer turns panics into a JSON 500. The panic value is only echoed back
// when expose is set (non-production).
func Recoverer(logger zerolog.Logger, expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l := logger
				if scoped := zerolog.Ctx(r.Context()); scoped != nil && scoped.GetLevel() != zerolog.Disabled {
					l = *scoped
				}
				l.Error().
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")

				body := common.ErrorBody{Error: "Error interno del servidor", Code: common.CodeInternal, Message: "Error interno"}
				if expose {
					body.Message = fmt.Sprint(rec)
				}
				common.JSON(w, http.StatusInternalServerError, body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "Ruta no encontrada", nil)
}

// MethodNotAllowed answers known routes hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método no permitido", nil)
}
