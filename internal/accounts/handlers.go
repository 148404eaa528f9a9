package accounts

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/inventory-notify/internal/common"
	"github.com/noah-isme/inventory-notify/internal/obs"
)

// Handler proxies account operations to Provider. Outside production a provider
// failure is answered with a simulated success so local work is not blocked.
type Handler struct {
	Provider      Provider
	DefaultDomain string
	Production    bool
	Validator     *common.Validator
	Logger        zerolog.Logger
	Now           func() time.Time
}

// Routes mounts the account endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/create", h.Create)
	r.Get("/list", h.List)
	r.Delete("/{email}", h.Delete)
	return r
}

type createRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Domain   string `json:"domain" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type deleteRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Domain string `json:"domain" validate:"required"`
}

type listRequest struct {
	Domain string `json:"domain" validate:"required"`
}

// Account is the account echoed back after creation.
type Account struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	CreatedAt string `json:"created_at"`
	Simulated bool   `json:"simulated,omitempty"`
}

type createResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Account Account `json:"account"`
}

type listResponse struct {
	Success   bool         `json:"success"`
	Accounts  []Credential `json:"accounts"`
	Total     int          `json:"total"`
	Simulated bool         `json:"simulated,omitempty"`
}

type deleteResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Simulated bool   `json:"simulated,omitempty"`
}

// Create handles POST /accounts/create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	issues, err := common.DecodeJSON(r.Body, &req)
	if err != nil {
		common.WriteError(w, common.ValidationError([]string{err.Error()}), false)
		return
	}
	req.Domain = h.domain(req.Domain)
	details := common.IssueMessages(issues)
	details = append(details, h.Validator.Struct(req, common.IssueFields(issues)...)...)
	if len(details) > 0 {
		common.WriteError(w, common.ValidationError(details), false)
		return
	}

	password := req.Password
	if password == "" {
		generated, err := GeneratePassword(DefaultPasswordLength)
		if err != nil {
			common.WriteError(w, err, !h.Production)
			return
		}
		password = generated
	}

	logger := obs.LoggerFrom(r, h.Logger)
	account := Account{Email: req.Email, Name: req.Name, Domain: req.Domain}
	err = h.Provider.Create(r.Context(), req.Domain, req.Email, password)
	account.CreatedAt = h.now().UTC().Format(time.RFC3339Nano)
	if err != nil {
		if !h.fallback(w, err, logger, "Error creando cuenta en el proveedor de email") {
			return
		}
		account.Simulated = true
		common.JSON(w, http.StatusOK, createResponse{
			Success: true,
			Message: "Cuenta de email creada exitosamente (simulado)",
			Account: account,
		})
		return
	}

	logger.Info().Str("email", req.Email).Str("domain", req.Domain).Msg("Cuenta de email creada exitosamente")
	common.JSON(w, http.StatusOK, createResponse{
		Success: true,
		Message: "Cuenta de email creada exitosamente",
		Account: account,
	})
}

// List handles GET /accounts/list?domain=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := listRequest{Domain: h.domain(r.URL.Query().Get("domain"))}
	if details := h.Validator.Struct(req); details != nil {
		common.WriteError(w, common.ValidationError(details), false)
		return
	}

	logger := obs.LoggerFrom(r, h.Logger)
	res, err := h.Provider.List(r.Context(), req.Domain)
	if err != nil {
		if !h.fallback(w, err, logger, "Error obteniendo lista de cuentas") {
			return
		}
		simulated := []Credential{{
			Login:     "admin@localhost",
			CreatedAt: h.now().UTC().Format(time.RFC3339Nano),
			Simulated: true,
		}}
		common.JSON(w, http.StatusOK, listResponse{Success: true, Accounts: simulated, Total: 1, Simulated: true})
		return
	}
	common.JSON(w, http.StatusOK, listResponse{Success: true, Accounts: res.Items, Total: res.Total})
}

// Delete handles DELETE /accounts/{email}?domain=.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	req := deleteRequest{
		Email:  strings.TrimSpace(chi.URLParam(r, "email")),
		Domain: h.domain(r.URL.Query().Get("domain")),
	}
	if details := h.Validator.Struct(req); details != nil {
		common.WriteError(w, common.ValidationError(details), false)
		return
	}

	logger := obs.LoggerFrom(r, h.Logger)
	if err := h.Provider.Delete(r.Context(), req.Domain, req.Email); err != nil {
		if !h.fallback(w, err, logger, "Error eliminando cuenta") {
			return
		}
		common.JSON(w, http.StatusOK, deleteResponse{
			Success:   true,
			Message:   "Cuenta eliminada exitosamente (simulado)",
			Simulated: true,
		})
		return
	}
	logger.Info().Str("email", req.Email).Str("domain", req.Domain).Msg("Cuenta de email eliminada")
	common.JSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Cuenta eliminada exitosamente"})
}

// fallback writes the error response for a failed provider call and returns false,
// or returns true when the caller should answer with a simulated success instead.
func (h *Handler) fallback(w http.ResponseWriter, err error, logger zerolog.Logger, failure string) bool {
	if errors.Is(err, ErrNotConfigured) {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfig, "Configuración de API externa no disponible", nil)
		return false
	}
	evt := logger.Error().Err(err)
	var perr *ProviderError
	if errors.As(err, &perr) {
		evt = evt.Int("provider_status", perr.Status)
	}
	evt.Msg(failure)

	if !h.Production {
		logger.Warn().Msg("provider unavailable, answering with simulated success")
		return true
	}
	common.WriteError(w, common.NewAppError(common.CodeUpstream, failure, http.StatusBadGateway, err), false)
	return false
}

func (h *Handler) domain(requested string) string {
	if d := strings.TrimSpace(requested); d != "" {
		return d
	}
	return strings.TrimSpace(h.DefaultDomain)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
