// Package handler exposes the identity registrar over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"graminsetu/internal/identity/models"
	"graminsetu/internal/identity/service"
	"graminsetu/internal/platform/middleware"
	"graminsetu/pkg/platform/httputil"
	"graminsetu/pkg/requestcontext"
)

// Handler serves the /auth routes.
type Handler struct {
	registrar *service.Registrar
	logger    *slog.Logger
}

// New constructs the identity handler.
func New(registrar *service.Registrar, logger *slog.Logger) *Handler {
	return &Handler{registrar: registrar, logger: logger}
}

// Routes registers the auth endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/send-otp", h.sendCode)
	r.Post("/verify-otp", h.verifyCode)
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(string(models.RoleAdmin)))
		r.Post("/create-user", h.adminCreateUser)
	})
}

// userResponse is the account shape returned to clients. The password hash
// never leaves the service layer.
type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Village  string `json:"village,omitempty"`
	District string `json:"district,omitempty"`
	Role     string `json:"role"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:       u.ID.String(),
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Village:  u.Village,
		District: u.District,
		Role:     string(u.Role),
	}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toSessionResponse(s *models.Session) sessionResponse {
	return sessionResponse{Token: s.Token, User: toUserResponse(s.User)}
}

type sendCodeRequest struct {
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	IsRegister bool   `json:"isRegister"`
}

type sendCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Method  string `json:"method"`
}

func (h *Handler) sendCode(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[sendCodeRequest](w, r, h.logger)
	if !ok {
		return
	}
	method, err := h.registrar.SendCode(r.Context(), service.SendCodeRequest{
		Phone:      req.Phone,
		Email:      req.Email,
		IsRegister: req.IsRegister,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sendCodeResponse{
		Success: true,
		Message: "OTP sent successfully",
		Method:  method,
	})
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (h *Handler) verifyCode(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[verifyCodeRequest](w, r, h.logger)
	if !ok {
		return
	}
	session, err := h.registrar.VerifyPhoneCode(r.Context(), req.Phone, req.OTP)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Village     string `json:"village"`
	District    string `json:"district"`
	OTP         string `json:"otp"`
	AdminSecret string `json:"adminSecret"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[registerRequest](w, r, h.logger)
	if !ok {
		return
	}
	session, err := h.registrar.Register(r.Context(), service.RegisterRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		Village:     req.Village,
		District:    req.District,
		OTP:         req.OTP,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[loginRequest](w, r, h.logger)
	if !ok {
		return
	}
	ctx := requestcontext.WithDeviceName(r.Context(), service.ParseUserAgent(r.UserAgent()))
	session, err := h.registrar.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

type adminCreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Village  string `json:"village"`
	District string `json:"district"`
}

func (h *Handler) adminCreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[adminCreateUserRequest](w, r, h.logger)
	if !ok {
		return
	}
	user, err := h.registrar.AdminCreateUser(r.Context(), requestcontext.UserID(r.Context()), service.AdminCreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Village:  req.Village,
		District: req.District,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}
