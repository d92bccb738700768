package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/taskiq/taskiq-auth/internal/auth/constants"
	"github.com/taskiq/taskiq-auth/internal/auth/models"
	"github.com/taskiq/taskiq-auth/internal/auth/providers"
	"github.com/taskiq/taskiq-auth/internal/identity"
	"github.com/taskiq/taskiq-auth/internal/logger"
	"github.com/taskiq/taskiq-auth/internal/store"
	"github.com/taskiq/taskiq-auth/internal/utils"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Handler handles the auth server HTTP requests. It keeps no state between
// requests.
type Handler struct {
	provider providers.Provider
	identity identity.Fetcher
	store    store.CredentialStore
}

// NewHandler creates a new Handler instance
func NewHandler(provider providers.Provider, fetcher identity.Fetcher, credentials store.CredentialStore) *Handler {
	return &Handler{
		provider: provider,
		identity: fetcher,
		store:    credentials,
	}
}

// HandleRoot handles GET / as a liveness check
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "TaskIQ Auth Server is running",
	})
}

// HandleGenerateAuthURL handles GET /generate-auth-url?email=
func (h *Handler) HandleGenerateAuthURL(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get(constants.EmailQueryParam)
	if email == "" {
		utils.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	authURL, err := h.provider.AuthCodeURL(email)
	if err != nil {
		logger.Error("Failed to generate auth URL", zap.String("email", email), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to generate auth URL: "+err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.AuthorizationRequest{
		AuthURL: authURL,
		Email:   email,
	})
}

// HandleAuthCallback handles the provider redirect on GET /auth/google. The
// code is exchanged, the email resolved and the credentials persisted; any
// failure ends the request with an error page.
func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get(constants.ErrorQueryParam); errParam != "" {
		logger.Warn("Provider returned an error", zap.String("error", errParam))
		renderError(w, http.StatusBadRequest, errParam)
		return
	}

	code := query.Get(constants.CodeQueryParam)
	if code == "" {
		renderMessage(w, http.StatusBadRequest, "No authorization code received")
		return
	}

	bundle, err := h.provider.ExchangeCode(r.Context(), code)
	if err != nil {
		logger.Error("Failed to exchange code", zap.Error(err))
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	email, err := h.identity.FetchEmail(r.Context(), bundle.Token.AccessToken)
	switch {
	case errors.Is(err, identity.ErrMissingEmail):
		logger.Warn("Identity endpoint returned no email")
		renderMessage(w, http.StatusBadRequest, "Could not retrieve user email")
		return
	case err != nil:
		logger.Error("Failed to fetch user email", zap.Error(err))
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	path, err := h.store.Save(email, bundle)
	if err != nil {
		logger.Error("Failed to save token", zap.String("email", email), zap.Error(err))
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("User authenticated",
		zap.String("email", email),
		zap.String("path", path),
		zap.Bool("refresh_token", bundle.Token.RefreshToken != ""),
	)
	utils.WriteHTML(w, http.StatusOK, templates, "success.html", map[string]string{
		"Email": email,
	})
}

// HandleTokenStatus handles GET /token/{user_id}. It never fails; problems
// reading the record are reported as has_token=false.
func (h *Handler) HandleTokenStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue(constants.UserIDPathValue)
	utils.WriteJSON(w, http.StatusOK, h.store.Exists(userID))
}

func renderError(w http.ResponseWriter, status int, message string) {
	utils.WriteHTML(w, status, templates, "error.html", map[string]string{
		"Error": message,
	})
}

func renderMessage(w http.ResponseWriter, status int, message string) {
	utils.WriteHTML(w, status, templates, "message.html", map[string]string{
		"Message": message,
	})
}
