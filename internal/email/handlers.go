// Package email exposes the HTTP endpoints that render and dispatch notification emails.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/inventory-notify/internal/common"
	"github.com/noah-isme/inventory-notify/internal/mail"
	"github.com/noah-isme/inventory-notify/internal/obs"
	"github.com/noah-isme/inventory-notify/internal/templates"
)

// Handler serves the email endpoints. Every request produces at most one dispatch.
type Handler struct {
	Renderer  *templates.Renderer
	Mail      mail.Dispatcher
	Validator *common.Validator
	Logger    zerolog.Logger
}

// Routes mounts the email endpoints. idem, when non-nil, guards the dispatching routes.
func (h *Handler) Routes(idem func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Group(func(g chi.Router) {
		if idem != nil {
			g.Use(idem)
		}
		g.Post("/send", h.Send)
		g.Post("/alert/stock-bajo", h.StockAlert)
		g.Post("/alert/vencimiento", h.ExpirationAlert)
		g.Post("/report/inventario", h.InventoryReport)
	})
	r.Get("/test", h.Test)
	return r
}

type sendResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
	To        string `json:"to,omitempty"`
}

type dispatchFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Send handles POST /email/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !h.bind(w, r, &req) {
		return
	}

	msg := mail.Message{To: req.To, Subject: req.Subject, Text: req.Text, HTML: req.HTML}
	if req.Template != "" {
		rendered, err := h.renderTemplate(req.Template, req.TemplateData)
		if err != nil {
			h.writeRenderError(w, err)
			return
		}
		msg.Subject, msg.Text, msg.HTML = rendered.Subject, rendered.Text, rendered.HTML
		msg.Template = req.Template
	}

	res, ok := h.dispatch(w, r, msg, "Error enviando email")
	if !ok {
		return
	}
	h.logger(r).Info().
		Str("message_id", res.MessageID).
		Str("to", res.To).
		Str("subject", msg.Subject).
		Msg("Email enviado exitosamente")
	common.JSON(w, http.StatusOK, sendResponse{
		Success:   true,
		Message:   "Email enviado exitosamente",
		MessageID: res.MessageID,
		To:        res.To,
	})
}

// StockAlert handles POST /email/alert/stock-bajo.
func (h *Handler) StockAlert(w http.ResponseWriter, r *http.Request) {
	var req stockAlertRequest
	if !h.bind(w, r, &req) {
		return
	}
	res, ok := h.renderAndDispatch(w, r, req.To, req.data(), "Error enviando alerta")
	if !ok {
		return
	}
	h.logger(r).Info().
		Str("message_id", res.MessageID).
		Str("producto", req.Producto.Codigo).
		Str("to", res.To).
		Msg("Alerta de stock bajo enviada")
	common.JSON(w, http.StatusOK, sendResponse{
		Success:   true,
		Message:   "Alerta de stock bajo enviada exitosamente",
		MessageID: res.MessageID,
	})
}

// ExpirationAlert handles POST /email/alert/vencimiento.
func (h *Handler) ExpirationAlert(w http.ResponseWriter, r *http.Request) {
	var req expirationAlertRequest
	if !h.bind(w, r, &req) {
		return
	}
	res, ok := h.renderAndDispatch(w, r, req.To, req.data(), "Error enviando alerta")
	if !ok {
		return
	}
	h.logger(r).Info().
		Str("message_id", res.MessageID).
		Str("producto", req.Producto.Codigo).
		Int("dias_restantes", *req.DiasRestantes).
		Str("to", res.To).
		Msg("Alerta de vencimiento enviada")
	common.JSON(w, http.StatusOK, sendResponse{
		Success:   true,
		Message:   "Alerta de vencimiento enviada exitosamente",
		MessageID: res.MessageID,
	})
}

// InventoryReport handles POST /email/report/inventario.
func (h *Handler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !h.bind(w, r, &req) {
		return
	}
	res, ok := h.renderAndDispatch(w, r, req.To, req.data(), "Error enviando reporte")
	if !ok {
		return
	}
	h.logger(r).Info().
		Str("message_id", res.MessageID).
		Str("to", res.To).
		Msg("Reporte de inventario enviado")
	common.JSON(w, http.StatusOK, sendResponse{
		Success:   true,
		Message:   "Reporte de inventario enviado exitosamente",
		MessageID: res.MessageID,
	})
}

// Test handles GET /email/test. It verifies the transport without sending mail.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	if err := h.Mail.Verify(r.Context()); err != nil {
		h.logger(r).Error().Err(err).Str("kind", string(mail.KindOf(err))).Msg("Error en configuración SMTP")
		common.JSON(w, http.StatusInternalServerError, dispatchFailure{
			Error:   "Error en configuración SMTP",
			Message: err.Error(),
			Kind:    string(mail.KindOf(err)),
		})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Configuración SMTP válida",
	})
}

// bind decodes and validates the request body. Values of the wrong type are
// reported alongside the constraint violations of the other fields.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	issues, err := common.DecodeJSON(r.Body, dst)
	if err != nil {
		common.WriteError(w, common.ValidationError([]string{err.Error()}), false)
		return false
	}
	if n, ok := dst.(interface{ normalize() }); ok {
		n.normalize()
	}
	details := common.IssueMessages(issues)
	details = append(details, h.Validator.Struct(dst, common.IssueFields(issues)...)...)
	if len(details) > 0 {
		common.WriteError(w, common.ValidationError(details), false)
		return false
	}
	return true
}

// renderTemplate decodes templateData into the payload type of the named template,
// validates it and renders it.
func (h *Handler) renderTemplate(name string, raw json.RawMessage) (templates.Rendered, error) {
	kind, err := templates.ParseKind(name)
	if err != nil {
		return templates.Rendered{}, err
	}
	payload, err := payloadFor(kind)
	if err != nil {
		return templates.Rendered{}, err
	}
	issues, err := common.DecodeJSON(bytes.NewReader(raw), payload)
	if err != nil {
		return templates.Rendered{}, common.ValidationError([]string{"templateData must be a JSON object"})
	}
	details := common.IssueMessages(issues)
	details = append(details, h.Validator.Struct(payload, common.IssueFields(issues)...)...)
	if len(details) > 0 {
		for i, d := range details {
			details[i] = "templateData." + d
		}
		return templates.Rendered{}, common.ValidationError(details)
	}
	return h.Renderer.Render(payload.data())
}

func (h *Handler) writeRenderError(w http.ResponseWriter, err error) {
	if errors.Is(err, templates.ErrUnknownTemplate) {
		common.WriteError(w, common.ValidationError([]string{err.Error()}), false)
		return
	}
	common.WriteError(w, err, false)
}

func (h *Handler) renderAndDispatch(w http.ResponseWriter, r *http.Request, to Recipients, data templates.Data, failure string) (mail.Result, bool) {
	rendered, err := h.Renderer.Render(data)
	if err != nil {
		h.writeRenderError(w, err)
		return mail.Result{}, false
	}
	return h.dispatch(w, r, mail.Message{
		To:       to,
		Subject:  rendered.Subject,
		Text:     rendered.Text,
		HTML:     rendered.HTML,
		Template: data.Kind().String(),
	}, failure)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, msg mail.Message, failure string) (mail.Result, bool) {
	// The SMTP timeout bounds the send; a client disconnect must not cut it short.
	res, err := h.Mail.Send(context.WithoutCancel(r.Context()), msg)
	if err != nil {
		kind := mail.KindOf(err)
		h.logger(r).Error().
			Err(err).
			Str("kind", string(kind)).
			Str("to", msg.RecipientField()).
			Str("template", msg.Template).
			Msg(failure)
		common.JSON(w, http.StatusInternalServerError, dispatchFailure{
			Error:   failure,
			Message: err.Error(),
			Kind:    string(kind),
		})
		return mail.Result{}, false
	}
	return res, true
}

func (h *Handler) logger(r *http.Request) *zerolog.Logger {
	l := obs.LoggerFrom(r, h.Logger)
	return &l
}
