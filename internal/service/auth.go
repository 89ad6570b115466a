// Package service holds the application logic between the HTTP handlers and
// the repositories. Services act on the visitor's workspace and never see
// HTTP types.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/auth"
	"github.com/sakif/hoverspeak/internal/ids"
	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/repository"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// Demo identity returned by every login.
const (
	DemoUserID    = "1"
	DemoFirstName = "John"
	DemoLastName  = "Doe"
	DemoCompany   = "Demo Company"
	DemoPlan      = "Pro"
)

// AccountService signs visitors in and out. There are no real credentials:
// login always yields the demo user and registration signs in whoever was
// typed.
type AccountService struct {
	accounts  repository.AccountRepository
	passwords *auth.PasswordService
	ids       *ids.Timestamp
	logger    *slog.Logger
}

func NewAccountService(
	accounts repository.AccountRepository,
	passwords *auth.PasswordService,
	idgen *ids.Timestamp,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		passwords: passwords,
		ids:       idgen,
		logger:    logger,
	}
}

// Login signs the workspace in as the demo user. The password is ignored.
func (s *AccountService) Login(_ context.Context, ws *workspace.Workspace, email, _ string) model.User {
	u := model.User{
		ID:               DemoUserID,
		FirstName:        DemoFirstName,
		LastName:         DemoLastName,
		Email:            email,
		Company:          DemoCompany,
		SubscriptionPlan: DemoPlan,
	}
	ws.SignIn(u)

	s.logger.Info("user signed in",
		slog.String("workspaceID", ws.ID()),
		slog.String("email", email),
	)
	return u
}

// Register signs the workspace in as the person on the form and keeps an
// account record. Nothing on the form is validated, and failing to keep
// the record does not stop the sign-in.
func (s *AccountService) Register(ctx context.Context, ws *workspace.Workspace, reg model.Registration) model.User {
	id, now := s.ids.Next()
	u := model.User{
		ID:               id,
		FirstName:        reg.FirstName,
		LastName:         reg.LastName,
		Email:            reg.Email,
		Company:          reg.CompanyName,
		SubscriptionPlan: reg.SubscriptionPlan,
	}

	account := &model.Account{
		User:             u,
		StreetAddress1:   reg.StreetAddress1,
		StreetAddress2:   reg.StreetAddress2,
		City:             reg.City,
		State:            reg.State,
		ZipCode:          reg.ZipCode,
		Country:          reg.Country,
		PhoneNumber:      reg.PhoneNumber,
		BusinessWebsite:  reg.BusinessWebsite,
		BillingFrequency: reg.BillingFrequency,
		AgreeTerms:       reg.AgreeTerms,
		AgreePrivacy:     reg.AgreePrivacy,
		CreatedAt:        now,
	}
	// BEST EFFORT:
	// The sign-in below happens whatever the form says, so a password that
	// bcrypt refuses (over 72 bytes) or a repository hiccup is logged and
	// skipped rather than turned into an error page.
	if hash, err := s.passwords.Hash(reg.Password); err != nil {
		s.logger.Warn("password not hashed", slog.String("userID", id), slog.String("error", err.Error()))
	} else {
		account.PasswordHash = hash
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		s.logger.Warn("account not recorded", slog.String("userID", id), slog.String("error", err.Error()))
	}

	// The workspace keeps the form for re-display; plaintext passwords must
	// not outlive this request.
	reg.Password = ""
	reg.ConfirmPassword = ""
	ws.SetRegistration(reg)
	ws.SignIn(u)

	s.logger.Info("user registered",
		slog.String("workspaceID", ws.ID()),
		slog.String("userID", id),
		slog.String("plan", reg.SubscriptionPlan),
	)
	return u
}

// Account returns the stored account of the signed-in user, or nil when the
// visitor is signed out or signed in without one (the demo login never
// creates a record).
func (s *AccountService) Account(ctx context.Context, ws *workspace.Workspace) (*model.Account, error) {
	u := ws.User()
	if u == nil || u.ID == DemoUserID {
		return nil, nil
	}

	account, err := s.accounts.GetAccountByID(ctx, u.ID)
	if err != nil {
		// Registration keeps going when the record can't be written, so a
		// missing account is expected, not a failure.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

// SignOut clears the user and any playback and returns to the landing page.
func (s *AccountService) SignOut(ws *workspace.Workspace) {
	ws.SignOut()
	s.logger.Info("user signed out", slog.String("workspaceID", ws.ID()))
}
