package oauth

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"Tether/internal/core/oauth"
	"Tether/internal/core/users"
)

// CallbackHandler finishes the provider redirect round trip
type CallbackHandler struct {
	service Service
	logger  *slog.Logger
	hostURL string
}

// NewCallbackHandler creates a new callback handler.
// hostURL is the frontend origin the browser is sent back to.
func NewCallbackHandler(service Service, hostURL string, logger *slog.Logger) *CallbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackHandler{service: service, hostURL: hostURL, logger: logger}
}

// HandleCallback processes the provider redirect
// GET /oauth/{provider}/callback?code=...&state=...
//
// Always answers 302: to HOST_URL/?success=true, or to HOST_URL/?error=<code>.
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider, err := users.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		h.redirectError(w, r, oauth.CodeInvalidRequest)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		// user denied consent or the provider refused; there is no code
		h.logger.Info("provider returned authorization error",
			slog.String("provider", provider.String()),
			slog.String("error", providerErr),
			slog.String("error_description", query.Get("error_description")))
	}

	if err := h.service.HandleCallback(r.Context(), provider, query.Get("code"), query.Get("state")); err != nil {
		code := oauth.CodeOf(err)
		h.logger.Warn("oauth callback failed",
			slog.String("provider", provider.String()),
			slog.String("code", string(code)),
			slog.String("error", err.Error()))
		h.redirectError(w, r, code)
		return
	}

	http.Redirect(w, r, h.hostURL+"/?success=true", http.StatusFound)
}

func (h *CallbackHandler) redirectError(w http.ResponseWriter, r *http.Request, code oauth.ErrorCode) {
	http.Redirect(w, r, h.hostURL+"/?error="+url.QueryEscape(string(code)), http.StatusFound)
}
