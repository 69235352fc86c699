package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medibook/clinic-booking/pkg/logging"
)

// Service implements sign-up, sign-in and token revocation.
type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	denylist Denylist
	logger   *logging.Logger
}

func NewService(repo Repository, tokens *TokenIssuer, denylist Denylist, logger *logging.Logger) *Service {
	if repo == nil || tokens == nil {
		panic("accounts: repository and token issuer required")
	}
	if denylist == nil {
		denylist = NewMemoryDenylist()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, tokens: tokens, denylist: denylist, logger: logger}
}

// SignUp registers a patient account. New accounts never receive elevated roles.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}
	p, err := s.repo.Create(ctx, &Profile{
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         RolePatient,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account created", "user_id", p.UserID, "role", p.Role)
	return p, nil
}

// SignIn checks the password and issues a session token.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	p, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(in.Password, p.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	token, claims, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Profile: p}, nil
}

// Authenticate verifies a bearer token and checks it has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Profile loads the profile behind verified claims.
func (s *Service) Profile(ctx context.Context, claims *Claims) (*Profile, error) {
	return s.repo.GetByUserID(ctx, claims.Subject)
}

// SignOut revokes the token until its natural expiry.
func (s *Service) SignOut(ctx context.Context, claims *Claims) error {
	if claims.ExpiresAt == nil {
		return ErrInvalidToken
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// EnsureAdmin seeds the admin profile. An empty email or password is a no-op.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*Profile, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		s.logger.Warn("admin credentials not configured; admin routes are unreachable")
		return nil, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash admin password: %w", err)
	}
	p, err := s.repo.UpsertAdmin(ctx, &Profile{Email: email, FirstName: "Clinic", LastName: "Admin", PasswordHash: hash})
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin profile ready", "email", p.Email)
	return p, nil
}
