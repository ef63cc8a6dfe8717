package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/icomp-shop/customer-auth/pkg/authflow"
	"github.com/icomp-shop/customer-auth/pkg/errors"
)

// Handler exposes the customer authentication flows over HTTP
type Handler struct {
	service   *authflow.AuthFlowService
	tokenAuth *jwtauth.JWTAuth
}

// NewHandler creates a new authentication API handler. The token auth must be
// configured with the same secret the session service signs with.
func NewHandler(service *authflow.AuthFlowService, tokenAuth *jwtauth.JWTAuth) *Handler {
	return &Handler{
		service:   service,
		tokenAuth: tokenAuth,
	}
}

// Routes returns the router for the customer authentication endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Get("/verify-email", h.VerifyEmail)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/complete-registration", h.CompleteRegistration)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokenAuth))
		r.Use(jwtauth.Authenticator(h.tokenAuth))
		r.Get("/me", h.Me)
	})

	return r
}

// Register handles POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	customerID, err := h.service.Register(r.Context(), authflow.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RegisterResponse{
		Message:    "Registration successful. Please check your email for verification.",
		CustomerID: customerID.String(),
	})
}

// VerifyEmail handles GET /verify-email?token=...
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	customerID, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, VerifyEmailResponse{
		CustomerID: customerID.String(),
		Message:    "Email verified successfully",
	})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	result, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{
		Customer: customerResponse(result.Customer),
		Token:    result.Token,
	})
}

// ForgotPassword handles POST /forgot-password. The response body is the same
// whether or not the email belongs to a customer.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: authflow.GenericResetMessage})
}

// ResetPassword handles POST /reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Password reset successfully"})
}

// CompleteRegistration handles POST /complete-registration
func (h *Handler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req CompleteRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid request body"})
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "Invalid customer id"})
		return
	}

	params := authflow.CompleteRegistrationParams{
		CustomerID:            customerID,
		ShippingSameAsBilling: req.ShippingSameAsBilling,
		MobilePhone:           req.MobilePhone,
		Landline:              req.Landline,
	}
	copier.Copy(&params.Billing, &req.Billing)
	copier.Copy(&params.Shipping, &req.Shipping)

	result, err := h.service.CompleteRegistration(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, CompleteRegistrationResponse{
		Customer: CompletedCustomer{
			ID:    result.ID.String(),
			Email: result.Email,
		},
		Message: "Registration completed successfully",
	})
}

// Me handles GET /me for an authenticated customer session
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDFromContext(r)
	if err != nil {
		slog.Error("Failed to get customer ID from token", "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Message: "Unauthorized"})
		return
	}

	profile, err := h.service.GetProfile(r.Context(), customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, customerResponse(profile))
}

// customerIDFromContext extracts the customer id from the verified session
// token in the request context
func customerIDFromContext(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}

	entityID, ok := claims["entity_id"].(string)
	if !ok || entityID == "" {
		return uuid.Nil, stderrors.New("entity_id not found in session claims")
	}

	customerID, err := uuid.Parse(entityID)
	if err != nil {
		return uuid.Nil, stderrors.New("invalid entity_id in session claims")
	}

	return customerID, nil
}

// respondError maps a service error onto the wire. Internal errors are logged
// and hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		slog.Error("Unexpected error", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Message: "An unexpected error occurred"})
		return
	}

	if appErr.Code == errors.ErrCodeInternal {
		slog.Error("Internal error", "err", appErr)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Message: "An unexpected error occurred"})
		return
	}

	render.Status(r, appErr.HTTPStatusCode())
	render.JSON(w, r, ErrorResponse{Message: appErr.Message})
}

func customerResponse(profile authflow.PublicProfile) CustomerResponse {
	return CustomerResponse{
		ID:        profile.ID.String(),
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
}
