package http

import (
	"context"
	"time"

	"github.com/landing-auth/internal/application/account"
	"github.com/landing-auth/internal/application/auth"
	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/infrastructure/google"
	jwtinfra "github.com/landing-auth/internal/infrastructure/jwt"
)

// AccountRepository is the account store the router wires into every service.
type AccountRepository interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	SetCode(ctx context.Context, accountID string, kind domain.CodeKind, hash string, expiry time.Time) error
	ClearCode(ctx context.Context, accountID string, kind domain.CodeKind) error
	ConsumeCode(ctx context.Context, accountID string, kind domain.CodeKind, hash string, maxAttempts int) error
	RecordFailedAttempt(ctx context.Context, accountID string) (int, error)
	Activate(ctx context.Context, accountID string, act domain.Activation) error
	SetImage(ctx context.Context, accountID, url string) error
	Delete(ctx context.Context, accountID string) error
}

type IdentityRepository interface {
	Get(ctx context.Context, uid string) (*domain.Identity, error)
	Create(ctx context.Context, id *domain.Identity) error
	RevokeTokens(ctx context.Context, uid string, at time.Time) error
	Delete(ctx context.Context, uid string) error
}

type DocumentRepository interface {
	List(ctx context.Context, collection string) ([]domain.Document, error)
	Get(ctx context.Context, collection, id string) (*domain.Document, error)
	Put(ctx context.Context, d *domain.Document) error
	Merge(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}

type TokenProvider interface {
	Sign(uid string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

// Deps holds all infrastructure dependencies for the router. Mailer,
// Throttle, Objects and Verifier are optional.
type Deps struct {
	Accounts   AccountRepository
	Identities IdentityRepository
	Documents  DocumentRepository
	Tokens     TokenProvider
	Verifier   IDTokenVerifier
	Mailer     auth.Mailer
	Throttle   auth.SendThrottle
	Objects    account.ObjectStore
}
