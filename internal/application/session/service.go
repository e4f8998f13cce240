package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/infrastructure/google"
	jwtinfra "github.com/landing-auth/internal/infrastructure/jwt"
	"github.com/landing-auth/internal/pkg/id"
)

const (
	msgIDTokenRequired = "idToken is required"
	msgInvalidIDToken  = "Invalid idToken"
	msgCreateFailed    = "Failed to create session"
	msgUnauthorized    = "Unauthorized"
)

type AccountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Activate(ctx context.Context, accountID string, act domain.Activation) error
}

type IdentityStore interface {
	Get(ctx context.Context, uid string) (*domain.Identity, error)
	Create(ctx context.Context, id *domain.Identity) error
	RevokeTokens(ctx context.Context, uid string, at time.Time) error
}

type TokenProvider interface {
	Sign(uid string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type Service interface {
	// Issue ensures an identity exists for the account and signs a session token.
	Issue(ctx context.Context, a *domain.Account) (string, error)
	// Resolve returns the account behind a session token. Invalid, expired or
	// revoked sessions yield ErrUnauthorized.
	Resolve(ctx context.Context, token string) (*domain.Account, error)
	// Current reports whether token is a live session and, if the account can
	// be loaded, its public view.
	Current(ctx context.Context, token string) (view *domain.AccountView, authenticated bool)
	CreateOAuthSession(ctx context.Context, idToken string) (string, error)
	Logout(ctx context.Context, token string) error
}

type ServiceDeps struct {
	Accounts   AccountStore
	Identities IdentityStore
	Tokens     TokenProvider
	Verifier   IDTokenVerifier // optional; OAuth sign-in fails when nil
	Now        func() time.Time
}

type service struct {
	accounts   AccountStore
	identities IdentityStore
	tokens     TokenProvider
	verifier   IDTokenVerifier
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		accounts:   deps.Accounts,
		identities: deps.Identities,
		tokens:     deps.Tokens,
		verifier:   deps.Verifier,
		now:        deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Issue(ctx context.Context, a *domain.Account) (string, error) {
	if err := s.ensureIdentity(ctx, a); err != nil {
		return "", err
	}
	return s.tokens.Sign(a.AccountID)
}

func (s *service) ensureIdentity(ctx context.Context, a *domain.Account) error {
	_, err := s.identities.Get(ctx, a.AccountID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get identity: %w", err)
	}
	provider := a.Provider
	if provider == "" {
		provider = domain.ProviderEmail
	}
	err = s.identities.Create(ctx, &domain.Identity{
		UID:           a.AccountID,
		Email:         a.Email,
		EmailVerified: true,
		Provider:      provider,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

// authenticate verifies the token signature and checks it against the
// identity's revocation watermark.
func (s *service) authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.NewError(domain.ErrUnauthorized, msgUnauthorized)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", domain.Wrap(domain.ErrUnauthorized, msgUnauthorized, err)
	}
	ident, err := s.identities.Get(ctx, claims.UID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.NewError(domain.ErrUnauthorized, msgUnauthorized)
	}
	if err != nil {
		return "", fmt.Errorf("get identity: %w", err)
	}
	if claims.IssuedAt == nil || claims.IssuedAt.Unix() < ident.TokensValidAfter {
		return "", domain.NewError(domain.ErrUnauthorized, "Session revoked")
	}
	return claims.UID, nil
}

func (s *service) Resolve(ctx context.Context, token string) (*domain.Account, error) {
	uid, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	a, err := s.accounts.Get(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrUnauthorized, msgUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *service) Current(ctx context.Context, token string) (*domain.AccountView, bool) {
	uid, err := s.authenticate(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.Warn("session check failed", "err", err)
		}
		return nil, false
	}
	a, err := s.accounts.Get(ctx, uid)
	if err != nil {
		slog.Warn("session account lookup failed", "uid", uid, "err", err)
		return nil, true
	}
	return a.View(), true
}

func (s *service) CreateOAuthSession(ctx context.Context, idToken string) (string, error) {
	if idToken == "" {
		return "", domain.NewError(domain.ErrBadRequest, msgIDTokenRequired)
	}
	if s.verifier == nil {
		return "", domain.Wrap(domain.ErrInternal, msgCreateFailed, errors.New("no id token verifier configured"))
	}
	p, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return "", domain.Wrap(domain.ErrUnauthorized, msgInvalidIDToken, err)
	}
	if p.Email == "" || !p.EmailVerified {
		return "", domain.NewError(domain.ErrUnauthorized, msgInvalidIDToken)
	}

	a, err := s.ensureOAuthAccount(ctx, p)
	if err != nil {
		return "", domain.Wrap(domain.ErrInternal, msgCreateFailed, err)
	}
	token, err := s.Issue(ctx, a)
	if err != nil {
		return "", domain.Wrap(domain.ErrInternal, msgCreateFailed, err)
	}
	return token, nil
}

// ensureOAuthAccount links the verified address to an account. Registered
// accounts are left untouched; pending signups are activated; unknown
// addresses get a new account.
func (s *service) ensureOAuthAccount(ctx context.Context, p *google.Payload) (*domain.Account, error) {
	email := domain.NormalizeEmail(p.Email)
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if a != nil && a.Registered() {
		return a, nil
	}

	act := domain.Activation{Provider: domain.ProviderGoogle, DisplayName: p.Name, Image: p.Picture}
	if a != nil {
		if err := s.accounts.Activate(ctx, a.AccountID, act); err != nil {
			return nil, err
		}
		a.Role, a.Status, a.Provider = domain.RoleUser, domain.StatusReguler, act.Provider
		return a, nil
	}

	now := s.now().UTC()
	a = &domain.Account{
		AccountID:   id.New(),
		Email:       email,
		Role:        domain.RoleUser,
		Status:      domain.StatusReguler,
		Provider:    act.Provider,
		DisplayName: act.DisplayName,
		Image:       act.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.accounts.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	uid, err := s.authenticate(ctx, token)
	if err != nil {
		return nil
	}
	if err := s.identities.RevokeTokens(ctx, uid, s.now()); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}
