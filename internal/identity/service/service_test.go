package service

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"graminsetu/internal/identity/models"
	"graminsetu/internal/identity/store"
	"graminsetu/internal/notify"
	"graminsetu/internal/notify/mocks"
	"graminsetu/internal/otc"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
	"graminsetu/pkg/platform/sentinel"
)

const adminSecret = "gram-admin-2024"

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

type RegistrarSuite struct {
	suite.Suite

	ctx       context.Context
	registrar *Registrar
	users     *store.InMemoryUserStore
	tokens    *TokenManager

	channel  *mocks.MockChannel
	lastBody string
	lastDest notify.Destination
}

func TestRegistrarSuite(t *testing.T) {
	suite.Run(t, new(RegistrarSuite))
}

func (s *RegistrarSuite) SetupTest() {
	s.ctx = context.Background()
	s.users = store.NewInMemory()
	s.tokens = NewTokenManager("test-signing-key", time.Hour)
	s.lastBody = ""
	s.lastDest = notify.Destination{}

	ctrl := gomock.NewController(s.T())
	s.channel = mocks.NewMockChannel(ctrl)
	s.channel.EXPECT().Name().Return("email").AnyTimes()
	s.channel.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dest notify.Destination, msg notify.Message) error {
			s.lastBody = msg.Body
			s.lastDest = dest
			return nil
		}).AnyTimes()

	logger := slog.New(slog.DiscardHandler)
	dispatcher := notify.NewDispatcher(time.Second, logger, s.channel)

	emailCodes, err := otc.NewRegistry(otc.NewInMemoryStore(), 5*time.Minute)
	s.Require().NoError(err)
	phoneCodes, err := otc.NewRegistry(otc.NewInMemoryStore(), 5*time.Minute)
	s.Require().NoError(err)

	s.registrar, err = NewRegistrar(
		s.users, emailCodes, phoneCodes, dispatcher, s.tokens, logger,
		WithAdminSecret(adminSecret),
	)
	s.Require().NoError(err)
}

// sentCode extracts the 6-digit code from the last dispatched message.
func (s *RegistrarSuite) sentCode() string {
	match := codePattern.FindString(s.lastBody)
	s.Require().NotEmpty(match, "dispatched message should carry a 6-digit code")
	return match
}

func (s *RegistrarSuite) register(email, phone, secret string) (*models.Session, error) {
	_, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Email: email, IsRegister: true})
	s.Require().NoError(err)
	return s.registrar.Register(s.ctx, RegisterRequest{
		Name:        "Ramesh Kumar",
		Email:       email,
		Phone:       phone,
		Password:    "kheti123",
		Village:     "Rampur",
		District:    "Sitapur",
		OTP:         s.sentCode(),
		AdminSecret: secret,
	})
}

func (s *RegistrarSuite) TestSendCodeAndRegister() {
	method, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Email: "ramesh@example.com", IsRegister: true})
	s.Require().NoError(err)
	s.Equal("email", method)
	s.Equal("ramesh@example.com", s.lastDest.Email)

	session, err := s.registrar.Register(s.ctx, RegisterRequest{
		Name:     "Ramesh Kumar",
		Email:    "ramesh@example.com",
		Phone:    "9876543210",
		Password: "kheti123",
		OTP:      s.sentCode(),
	})
	s.Require().NoError(err)
	s.Equal(models.RoleFarmer, session.User.Role)
	s.NotEmpty(session.Token)

	claims, err := s.tokens.Validate(session.Token)
	s.Require().NoError(err)
	s.Equal(session.User.ID, claims.UserID)
	s.Equal("farmer", claims.Role)
}

func (s *RegistrarSuite) TestSendCodeExistingEmailConflicts() {
	_, err := s.register("ramesh@example.com", "9876543210", "")
	s.Require().NoError(err)

	_, err = s.registrar.SendCode(s.ctx, SendCodeRequest{Email: "ramesh@example.com", IsRegister: true})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *RegistrarSuite) TestSendCodeUnknownPhone() {
	_, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Phone: "9000000000"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RegistrarSuite) TestRegisterWithoutCode() {
	_, err := s.registrar.Register(s.ctx, RegisterRequest{
		Name:     "Ramesh Kumar",
		Email:    "ramesh@example.com",
		Phone:    "9876543210",
		Password: "kheti123",
		OTP:      "123456",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *RegistrarSuite) TestRegisterWrongCodeThenRight() {
	_, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Email: "ramesh@example.com", IsRegister: true})
	s.Require().NoError(err)
	code := s.sentCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	req := RegisterRequest{
		Name: "Ramesh Kumar", Email: "ramesh@example.com",
		Phone: "9876543210", Password: "kheti123", OTP: wrong,
	}
	_, err = s.registrar.Register(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// A mismatch keeps the code alive for retry.
	req.OTP = code
	_, err = s.registrar.Register(s.ctx, req)
	s.NoError(err)
}

func (s *RegistrarSuite) TestCodeIsSingleUse() {
	_, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Email: "ramesh@example.com", IsRegister: true})
	s.Require().NoError(err)
	code := s.sentCode()

	req := RegisterRequest{
		Name: "Ramesh Kumar", Email: "ramesh@example.com",
		Phone: "9876543210", Password: "kheti123", OTP: code,
	}
	_, err = s.registrar.Register(s.ctx, req)
	s.Require().NoError(err)

	// The consumed code cannot gate a second registration, even for a
	// different email under the same code value.
	req.Email = "other@example.com"
	req.Phone = "9876543211"
	_, err = s.registrar.Register(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *RegistrarSuite) TestAdminSecretGrantsAdminRole() {
	session, err := s.register("sarpanch@example.com", "9876500001", adminSecret)
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, session.User.Role)
}

func (s *RegistrarSuite) TestWrongAdminSecretStaysFarmer() {
	session, err := s.register("ramesh@example.com", "9876543210", "guess")
	s.Require().NoError(err)
	s.Equal(models.RoleFarmer, session.User.Role)
}

func (s *RegistrarSuite) TestDuplicateRegistrationConflicts() {
	// Race shape: the email is free at send-code time but taken (here via
	// the admin path) before registration completes.
	_, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Email: "ramesh@example.com", IsRegister: true})
	s.Require().NoError(err)
	code := s.sentCode()

	_, err = s.registrar.AdminCreateUser(s.ctx, id.NewUserID(), AdminCreateUserRequest{
		Name: "Ramesh Kumar", Email: "ramesh@example.com",
		Phone: "9876543210", Password: "kheti123",
	})
	s.Require().NoError(err)

	_, err = s.registrar.Register(s.ctx, RegisterRequest{
		Name: "Ramesh Kumar", Email: "ramesh@example.com",
		Phone: "9876543211", Password: "kheti123", OTP: code,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *RegistrarSuite) TestLogin() {
	_, err := s.register("ramesh@example.com", "9876543210", "")
	s.Require().NoError(err)

	s.Run("correct credentials", func() {
		session, err := s.registrar.Login(s.ctx, "ramesh@example.com", "kheti123")
		s.Require().NoError(err)
		s.Equal("ramesh@example.com", session.User.Email)
		s.NotEmpty(session.Token)
	})

	s.Run("wrong password", func() {
		_, err := s.registrar.Login(s.ctx, "ramesh@example.com", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", dErrors.MessageOf(err))
	})

	s.Run("unknown email reports the same message", func() {
		_, err := s.registrar.Login(s.ctx, "nobody@example.com", "kheti123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", dErrors.MessageOf(err))
	})
}

func (s *RegistrarSuite) TestPhoneCodeLogin() {
	_, err := s.register("ramesh@example.com", "9876543210", "")
	s.Require().NoError(err)

	method, err := s.registrar.SendCode(s.ctx, SendCodeRequest{Phone: "9876543210"})
	s.Require().NoError(err)
	s.Equal("email", method)

	session, err := s.registrar.VerifyPhoneCode(s.ctx, "9876543210", s.sentCode())
	s.Require().NoError(err)
	s.Equal("ramesh@example.com", session.User.Email)

	// Consumed: the same code cannot log in twice.
	_, err = s.registrar.VerifyPhoneCode(s.ctx, "9876543210", s.sentCode())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *RegistrarSuite) TestPhoneAndEmailCodesAreDisjoint() {
	_, err := s.register("ramesh@example.com", "9876543210", "")
	s.Require().NoError(err)

	_, err = s.registrar.SendCode(s.ctx, SendCodeRequest{Email: "other@example.com", IsRegister: true})
	s.Require().NoError(err)

	// An email-keyed code never satisfies the phone flow.
	_, err = s.registrar.VerifyPhoneCode(s.ctx, "9876543210", s.sentCode())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *RegistrarSuite) TestAdminCreateUser() {
	actor := id.NewUserID()

	s.Run("defaults to farmer", func() {
		user, err := s.registrar.AdminCreateUser(s.ctx, actor, AdminCreateUserRequest{
			Name: "Sita Devi", Email: "sita@example.com",
			Phone: "9876500002", Password: "pass1234",
		})
		s.Require().NoError(err)
		s.Equal(models.RoleFarmer, user.Role)
		s.NotEqual("pass1234", user.PasswordHash)
	})

	s.Run("explicit admin role", func() {
		user, err := s.registrar.AdminCreateUser(s.ctx, actor, AdminCreateUserRequest{
			Name: "Block Officer", Email: "officer@example.com",
			Phone: "9876500003", Password: "pass1234", Role: models.RoleAdmin,
		})
		s.Require().NoError(err)
		s.Equal(models.RoleAdmin, user.Role)
	})

	s.Run("invalid role rejected", func() {
		_, err := s.registrar.AdminCreateUser(s.ctx, actor, AdminCreateUserRequest{
			Name: "X", Email: "x@example.com",
			Phone: "9876500004", Password: "pass1234", Role: "superuser",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.registrar.AdminCreateUser(s.ctx, actor, AdminCreateUserRequest{
			Name: "Sita Devi", Email: "sita@example.com",
			Phone: "9876500005", Password: "pass1234",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing fields rejected", func() {
		_, err := s.registrar.AdminCreateUser(s.ctx, actor, AdminCreateUserRequest{
			Name: "No Password", Email: "np@example.com", Phone: "9876500006",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistrarSuite) TestLookup() {
	session, err := s.register("ramesh@example.com", "9876543210", "")
	s.Require().NoError(err)

	claims, err := s.registrar.Lookup(s.ctx, session.User.ID.String())
	s.Require().NoError(err)
	s.Equal(session.User.ID, claims.UserID)
	s.Equal("farmer", claims.Role)

	_, err = s.registrar.Lookup(s.ctx, "not-a-uuid")
	s.Error(err)

	_, err = s.registrar.Lookup(s.ctx, id.NewUserID().String())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RegistrarSuite) TestSendCodeSurvivesChannelFailure() {
	ctrl := gomock.NewController(s.T())
	failing := mocks.NewMockChannel(ctrl)
	failing.EXPECT().Name().Return("sms").AnyTimes()
	failing.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(context.DeadlineExceeded).AnyTimes()

	logger := slog.New(slog.DiscardHandler)
	dispatcher := notify.NewDispatcher(time.Second, logger, failing)
	emailCodes, err := otc.NewRegistry(otc.NewInMemoryStore(), 5*time.Minute)
	s.Require().NoError(err)
	phoneCodes, err := otc.NewRegistry(otc.NewInMemoryStore(), 5*time.Minute)
	s.Require().NoError(err)
	registrar, err := NewRegistrar(s.users, emailCodes, phoneCodes, dispatcher, s.tokens, logger)
	s.Require().NoError(err)

	method, err := registrar.SendCode(s.ctx, SendCodeRequest{Email: "ramesh@example.com", IsRegister: true})
	s.Require().NoError(err)
	s.Equal(notify.MethodConsole, method)
}
