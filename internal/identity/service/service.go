// Package service implements the identity registrar: code-gated
// self-registration, credential login, the phone code flow, and direct
// admin account creation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"graminsetu/internal/audit"
	"graminsetu/internal/identity/models"
	"graminsetu/internal/identity/store"
	"graminsetu/internal/notify"
	"graminsetu/internal/otc"
	"graminsetu/internal/platform/metrics"
	"graminsetu/internal/platform/middleware"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/requestcontext"
)

// Dispatcher is the slice of the notification layer the registrar needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, dest notify.Destination, msg notify.Message) string
}

// Registrar creates accounts and authenticates callers.
//
// Two code registries are wired on purpose: self-registration is gated by
// an email-keyed code, while a separate phone-keyed flow serves the login
// screen. The two flows are never reconciled; they stay disconnected
// instances of the same registry type, in disjoint keyspaces.
type Registrar struct {
	users       store.UserStore
	emailCodes  *otc.Registry
	phoneCodes  *otc.Registry
	dispatcher  Dispatcher
	tokens      *TokenManager
	adminSecret string
	logger      *slog.Logger
	metrics     *metrics.Metrics
	auditor     *audit.Emitter
}

// Option configures a Registrar.
type Option func(*Registrar)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registrar) { r.metrics = m }
}

func WithAuditor(a *audit.Emitter) Option {
	return func(r *Registrar) { r.auditor = a }
}

func WithAdminSecret(secret string) Option {
	return func(r *Registrar) { r.adminSecret = secret }
}

// NewRegistrar constructs the registrar.
func NewRegistrar(
	users store.UserStore,
	emailCodes, phoneCodes *otc.Registry,
	dispatcher Dispatcher,
	tokens *TokenManager,
	logger *slog.Logger,
	opts ...Option,
) (*Registrar, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if emailCodes == nil || phoneCodes == nil {
		return nil, fmt.Errorf("code registries are required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	r := &Registrar{
		users:      users,
		emailCodes: emailCodes,
		phoneCodes: phoneCodes,
		dispatcher: dispatcher,
		tokens:     tokens,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SendCodeRequest mirrors the send-otp endpoint body.
type SendCodeRequest struct {
	Phone      string
	Email      string
	IsRegister bool
}

// SendCode issues a code and attempts delivery. Registration codes are
// keyed by email; login codes by phone. Delivery failure is swallowed:
// the caller is told the code was sent regardless (deliberate policy —
// never block the user on a collaborator).
func (r *Registrar) SendCode(ctx context.Context, req SendCodeRequest) (string, error) {
	var (
		key         string
		targetEmail string
	)

	if req.IsRegister {
		if req.Email == "" {
			return "", dErrors.New(dErrors.CodeBadRequest, "email is required")
		}
		if _, err := r.users.FindByEmail(ctx, req.Email); err == nil {
			return "", dErrors.New(dErrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
		}
		key = emailCodeKey(req.Email)
		targetEmail = req.Email
	} else {
		if req.Phone == "" {
			return "", dErrors.New(dErrors.CodeBadRequest, "phone is required")
		}
		user, err := r.users.FindByPhone(ctx, req.Phone)
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "phone number not registered")
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check phone")
		}
		key = req.Phone
		targetEmail = user.Email
	}

	registry := r.phoneCodes
	if req.IsRegister {
		registry = r.emailCodes
	}
	code, err := registry.Issue(ctx, key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue code")
	}
	r.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.ActionCodeIssued,
		Subject:  key,
	})

	action := "Login"
	if req.IsRegister {
		action = "Registration"
	}
	method := r.dispatcher.Dispatch(ctx, notify.Destination{Email: targetEmail, Phone: req.Phone}, notify.Message{
		Subject: fmt.Sprintf("GraminSetu %s OTP", action),
		Body:    fmt.Sprintf("GraminSetu %s OTP: %s.\nValid for 5 minutes.\nDo not share this OTP with anyone.", action, code),
	})

	r.logger.InfoContext(ctx, "one-time code dispatched",
		"key", key,
		"method", method,
		"register", req.IsRegister,
	)
	return method, nil
}

// RegisterRequest mirrors the register endpoint body.
type RegisterRequest struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	Village     string
	District    string
	OTP         string
	AdminSecret string
}

// Register completes a code-gated self-registration and returns a session.
func (r *Registrar) Register(ctx context.Context, req RegisterRequest) (*models.Session, error) {
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name, email, phone and password are required")
	}

	if err := r.emailCodes.Verify(ctx, emailCodeKey(req.Email), req.OTP); err != nil {
		r.auditor.Emit(ctx, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.ActionCodeVerifyFailed,
			Subject:  req.Email,
		})
		return nil, codeVerifyError(err, "please verify email with OTP first")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	role := models.RoleFarmer
	if r.adminSecret != "" && req.AdminSecret == r.adminSecret {
		role = models.RoleAdmin
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           id.NewUserID(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		Village:      req.Village,
		District:     req.District,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	r.metrics.IncUsersCreated()
	r.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionUserCreated,
		ActorID:  user.ID.String(),
		Detail:   string(role),
	})

	return r.session(ctx, user)
}

// Login authenticates by email and password. No one-time code is required
// on this path; only registration is code-gated.
func (r *Registrar) Login(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		r.auditor.Emit(ctx, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.ActionLoginFailed,
			Subject:  user.ID.String(),
		})
		return nil, invalidCredentials()
	}

	r.logger.InfoContext(ctx, "login succeeded",
		"user_id", user.ID,
		"device", requestcontext.DeviceName(ctx),
	)
	r.auditor.Emit(ctx, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.ActionLoginSucceeded,
		ActorID:  user.ID.String(),
		Detail:   requestcontext.DeviceName(ctx),
	})
	return r.session(ctx, user)
}

// VerifyPhoneCode consumes a phone-keyed code and returns a session for
// the account registered under that phone. This flow does not gate
// registration or password login; it exists for the login-by-phone screen.
func (r *Registrar) VerifyPhoneCode(ctx context.Context, phone, code string) (*models.Session, error) {
	if err := r.phoneCodes.Verify(ctx, phone, code); err != nil {
		r.auditor.Emit(ctx, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.ActionCodeVerifyFailed,
			Subject:  phone,
		})
		return nil, codeVerifyError(err, "OTP expired or not sent")
	}

	user, err := r.users.FindByPhone(ctx, phone)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "phone number not registered")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return r.session(ctx, user)
}

// AdminCreateUserRequest is the direct-creation body. No code is required
// on this path; the asymmetry with self-registration is intentional.
type AdminCreateUserRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     models.Role
	Village  string
	District string
}

// AdminCreateUser creates an account directly. Caller authorization is the
// handler's concern (admin-only route).
func (r *Registrar) AdminCreateUser(ctx context.Context, actor id.UserID, req AdminCreateUserRequest) (*models.User, error) {
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name, email, phone and password are required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleFarmer
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           id.NewUserID(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		Village:      req.Village,
		District:     req.District,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	r.metrics.IncUsersCreated()
	r.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionUserCreated,
		ActorID:  actor.String(),
		Subject:  user.ID.String(),
		Detail:   string(role),
	})
	return user, nil
}

// Lookup implements middleware.UserDirectory for the legacy user-id header
// path.
func (r *Registrar) Lookup(ctx context.Context, rawID string) (middleware.Claims, error) {
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return middleware.Claims{}, err
	}
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return middleware.Claims{}, err
	}
	return middleware.Claims{UserID: user.ID, Role: string(user.Role)}, nil
}

func (r *Registrar) session(ctx context.Context, user *models.User) (*models.Session, error) {
	token, err := r.tokens.Issue(user, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}
	return &models.Session{Token: token, User: user}, nil
}

// emailCodeKey keeps email-keyed entries distinct from phone-keyed ones in
// shared stores; the two registries must stay disjoint.
func emailCodeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	// One message for both unknown email and bad password; the split would
	// leak which emails exist.
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func codeVerifyError(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeUnauthorized, notFoundMsg)
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeUnauthorized, "OTP expired")
	case errors.Is(err, sentinel.ErrMismatch):
		return dErrors.New(dErrors.CodeUnauthorized, "invalid OTP")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify code")
	}
}
