package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/infrastructure/google"
	jwtinfra "github.com/landing-auth/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Put(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) Activate(ctx context.Context, accountID string, act domain.Activation) error {
	return m.Called(ctx, accountID, act).Error(0)
}

type mockIdentityStore struct{ mock.Mock }

func (m *mockIdentityStore) Get(ctx context.Context, uid string) (*domain.Identity, error) {
	args := m.Called(ctx, uid)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentityStore) Create(ctx context.Context, id *domain.Identity) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockIdentityStore) RevokeTokens(ctx context.Context, uid string, at time.Time) error {
	return m.Called(ctx, uid, at).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Sign(uid string) (string, error) {
	args := m.Called(uid)
	return args.String(0), args.Error(1)
}
func (m *mockTokens) Verify(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, token string) (*google.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*google.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- builder ---

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(as *mockAccountStore, is *mockIdentityStore, tp *mockTokens, v IDTokenVerifier) Service {
	return NewService(ServiceDeps{
		Accounts:   as,
		Identities: is,
		Tokens:     tp,
		Verifier:   v,
		Now:        func() time.Time { return fixedNow },
	})
}

func claimsAt(uid string, iat time.Time) *jwtinfra.Claims {
	return &jwtinfra.Claims{UID: uid, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(iat)}}
}

// --- Issue ---

func TestIssue_CreatesMissingIdentity(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	is.On("Create", mock.Anything, mock.MatchedBy(func(i *domain.Identity) bool {
		return i.UID == "u1" && i.Email == "a@b.com" && i.EmailVerified && i.Provider == domain.ProviderEmail
	})).Return(nil)
	tp := &mockTokens{}
	tp.On("Sign", "u1").Return("jwt", nil)

	tok, err := newService(nil, is, tp, nil).Issue(context.Background(), &domain.Account{AccountID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok)
	is.AssertExpectations(t)
}

func TestIssue_ExistingIdentity(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	tp := &mockTokens{}
	tp.On("Sign", "u1").Return("jwt", nil)

	_, err := newService(nil, is, tp, nil).Issue(context.Background(), &domain.Account{AccountID: "u1"})
	require.NoError(t, err)
	is.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIssue_CreateRaceIsTolerated(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	is.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	tp := &mockTokens{}
	tp.On("Sign", "u1").Return("jwt", nil)

	_, err := newService(nil, is, tp, nil).Issue(context.Background(), &domain.Account{AccountID: "u1"})
	assert.NoError(t, err)
}

func TestIssue_StoreFailure(t *testing.T) {
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(nil, errors.New("timeout"))

	_, err := newService(nil, is, nil, nil).Issue(context.Background(), &domain.Account{AccountID: "u1"})
	assert.ErrorContains(t, err, "get identity")
}

// --- Resolve ---

func TestResolve_EmptyToken(t *testing.T) {
	_, err := newService(nil, nil, nil, nil).Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolve_BadSignature(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(nil, errors.New("signature is invalid"))

	_, err := newService(nil, nil, tp, nil).Resolve(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolve_Revoked(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow.Add(-time.Hour)), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1", TokensValidAfter: fixedNow.Unix()}, nil)

	_, err := newService(nil, is, tp, nil).Resolve(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolve_IdentityGone(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	_, err := newService(nil, is, tp, nil).Resolve(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolve_AccountGoneIsUnauthorized(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	_, err := newService(as, is, tp, nil).Resolve(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolve_InfraErrorIsNotUnauthorized(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(nil, errors.New("timeout"))

	_, err := newService(nil, is, tp, nil).Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResolve_OK(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1", TokensValidAfter: fixedNow.Add(-time.Minute).Unix()}, nil)
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{AccountID: "u1", Role: domain.RoleAdmin}, nil)

	a, err := newService(as, is, tp, nil).Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin())
}

// --- Current ---

func TestCurrent_Unauthenticated(t *testing.T) {
	view, ok := newService(nil, nil, nil, nil).Current(context.Background(), "")
	assert.False(t, ok)
	assert.Nil(t, view)
}

func TestCurrent_AccountLookupFails(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(nil, errors.New("timeout"))

	view, ok := newService(as, is, tp, nil).Current(context.Background(), "tok")
	assert.True(t, ok)
	assert.Nil(t, view)
}

func TestCurrent_ReturnsView(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	as := &mockAccountStore{}
	as.On("Get", mock.Anything, "u1").Return(&domain.Account{
		AccountID: "u1", Email: "a@b.com", Role: domain.RoleUser, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}, nil)

	view, ok := newService(as, is, tp, nil).Current(context.Background(), "tok")
	assert.True(t, ok)
	require.NotNil(t, view)
	assert.Equal(t, "u1", view.UID)
	assert.Equal(t, fixedNow.UnixMilli(), view.CreatedAt)
}

// --- CreateOAuthSession ---

func TestCreateOAuthSession_MissingToken(t *testing.T) {
	_, err := newService(nil, nil, nil, nil).CreateOAuthSession(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, msgIDTokenRequired, msg)
}

func TestCreateOAuthSession_NoVerifier(t *testing.T) {
	_, err := newService(nil, nil, nil, nil).CreateOAuthSession(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrInternal))
}

func TestCreateOAuthSession_InvalidToken(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(nil, domain.ErrUnauthorized)

	_, err := newService(nil, nil, nil, v).CreateOAuthSession(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCreateOAuthSession_UnverifiedEmail(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&google.Payload{Email: "a@b.com"}, nil)

	_, err := newService(nil, nil, nil, v).CreateOAuthSession(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCreateOAuthSession_RegisteredAccountUntouched(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&google.Payload{Email: "A@b.com", EmailVerified: true, Name: "Ana"}, nil)
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Account{AccountID: "u1", Email: "a@b.com", Role: domain.RoleAdmin}, nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	tp := &mockTokens{}
	tp.On("Sign", "u1").Return("jwt", nil)

	tok, err := newService(as, is, tp, v).CreateOAuthSession(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok)
	as.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
	as.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreateOAuthSession_ActivatesPendingSignup(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&google.Payload{Email: "a@b.com", EmailVerified: true, Name: "Ana", Picture: "https://img"}, nil)
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Account{AccountID: "u1", Email: "a@b.com"}, nil)
	as.On("Activate", mock.Anything, "u1", domain.Activation{Provider: domain.ProviderGoogle, DisplayName: "Ana", Image: "https://img"}).Return(nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	is.On("Create", mock.Anything, mock.MatchedBy(func(i *domain.Identity) bool {
		return i.Provider == domain.ProviderGoogle
	})).Return(nil)
	tp := &mockTokens{}
	tp.On("Sign", "u1").Return("jwt", nil)

	_, err := newService(as, is, tp, v).CreateOAuthSession(context.Background(), "tok")
	require.NoError(t, err)
	as.AssertExpectations(t)
	is.AssertExpectations(t)
}

func TestCreateOAuthSession_CreatesAccount(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&google.Payload{Email: "a@b.com", EmailVerified: true}, nil)
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	var created *domain.Account
	as.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.Account)
	}).Return(nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	is.On("Create", mock.Anything, mock.Anything).Return(nil)
	tp := &mockTokens{}
	tp.On("Sign", mock.Anything).Return("jwt", nil)

	_, err := newService(as, is, tp, v).CreateOAuthSession(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, domain.RoleUser, created.Role)
	assert.Equal(t, domain.StatusReguler, created.Status)
	assert.Equal(t, domain.ProviderGoogle, created.Provider)
	assert.Equal(t, fixedNow, created.CreatedAt)
}

func TestCreateOAuthSession_StoreFailure(t *testing.T) {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "tok").Return(&google.Payload{Email: "a@b.com", EmailVerified: true}, nil)
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, errors.New("timeout"))

	_, err := newService(as, nil, nil, v).CreateOAuthSession(context.Background(), "tok")
	assert.True(t, errors.Is(err, domain.ErrInternal))
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, msgCreateFailed, msg)
}

// --- Logout ---

func TestLogout_RevokesValidSession(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	is.On("RevokeTokens", mock.Anything, "u1", fixedNow).Return(nil)

	require.NoError(t, newService(nil, is, tp, nil).Logout(context.Background(), "tok"))
	is.AssertExpectations(t)
}

func TestLogout_InvalidSessionIsNoop(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(nil, errors.New("expired"))

	assert.NoError(t, newService(nil, nil, tp, nil).Logout(context.Background(), "tok"))
}

func TestLogout_RevokeFailure(t *testing.T) {
	tp := &mockTokens{}
	tp.On("Verify", "tok").Return(claimsAt("u1", fixedNow), nil)
	is := &mockIdentityStore{}
	is.On("Get", mock.Anything, "u1").Return(&domain.Identity{UID: "u1"}, nil)
	is.On("RevokeTokens", mock.Anything, "u1", fixedNow).Return(errors.New("timeout"))

	assert.ErrorContains(t, newService(nil, is, tp, nil).Logout(context.Background(), "tok"), "revoke tokens")
}
