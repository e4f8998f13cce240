package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/infrastructure/smtp"
	"github.com/landing-auth/internal/pkg/id"
	"github.com/landing-auth/internal/pkg/otp"
	"github.com/landing-auth/internal/pkg/validate"
)

const (
	msgEmailRequired   = "Email is required"
	msgInvalidEmail    = "Invalid email format"
	msgAccountNotFound = "Account not found"
	msgUnexpected      = "An unexpected error occurred"
	msgTooManyCodes    = "Terlalu banyak permintaan kode. Silakan coba lagi nanti."

	msgSignupLookup   = "Server misconfiguration: accounts collection not set"
	msgEmailTaken     = "Email sudah terdaftar. Silakan gunakan email lain atau login."
	msgSignupFailed   = "Gagal mengirim kode verifikasi pendaftaran"
	MsgSignupCodeSent = "Kode verifikasi pendaftaran berhasil dikirim"
	MsgLoginCodeSent  = "Login verification code sent"

	msgOTPFormat       = "OTP harus 6 digit"
	msgOTPNoAccount    = "Email tidak ditemukan atau OTP tidak valid"
	msgOTPMissing      = "OTP tidak ditemukan. Silakan minta OTP baru"
	msgOTPExpired      = "OTP sudah kadaluarsa. Silakan minta OTP baru"
	msgOTPMismatch     = "OTP tidak valid. Silakan periksa kembali kode yang Anda masukkan"
	msgOTPVerifyFailed = "Terjadi kesalahan saat memverifikasi OTP. Silakan coba lagi"
	msgOTPSetupFailed  = "Terjadi kesalahan saat menyiapkan akun. Silakan coba lagi."
)

// AccountStore is the subset of the account repository the OTP flow needs.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	SetCode(ctx context.Context, accountID string, kind domain.CodeKind, hash string, expiry time.Time) error
	ClearCode(ctx context.Context, accountID string, kind domain.CodeKind) error
	// ConsumeCode clears the code only if it still matches hash and is under
	// maxAttempts failures, returning ErrConflict otherwise.
	ConsumeCode(ctx context.Context, accountID string, kind domain.CodeKind, hash string, maxAttempts int) error
	RecordFailedAttempt(ctx context.Context, accountID string) (int, error)
	Activate(ctx context.Context, accountID string, act domain.Activation) error
}

// SessionIssuer creates the sign-in identity if needed and returns a session token.
type SessionIssuer interface {
	Issue(ctx context.Context, a *domain.Account) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, m smtp.Message) error
}

// SendThrottle limits how often codes are mailed to one address.
type SendThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Service interface {
	RequestLoginCode(ctx context.Context, email string) error
	RequestSignupCode(ctx context.Context, email string) error
	// VerifyOTP checks the code and returns a signed session token.
	VerifyOTP(ctx context.Context, email, code string) (string, error)
}

type ServiceDeps struct {
	Accounts    AccountStore
	Sessions    SessionIssuer
	Mailer      Mailer       // optional; codes are not sent when nil
	Throttle    SendThrottle // optional
	CodeTTL     time.Duration
	MaxAttempts int
	Now         func() time.Time
}

type service struct {
	accounts    AccountStore
	sessions    SessionIssuer
	mailer      Mailer
	throttle    SendThrottle
	codeTTL     time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		accounts:    deps.Accounts,
		sessions:    deps.Sessions,
		mailer:      deps.Mailer,
		throttle:    deps.Throttle,
		codeTTL:     deps.CodeTTL,
		maxAttempts: deps.MaxAttempts,
		now:         deps.Now,
	}
	if s.codeTTL <= 0 {
		s.codeTTL = 10 * time.Minute
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) RequestLoginCode(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return err
	}
	a, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewError(domain.ErrNotFound, msgAccountNotFound)
	case err != nil:
		return domain.Wrap(domain.ErrInternal, msgUnexpected, err)
	case !a.Registered():
		return domain.NewError(domain.ErrNotFound, msgAccountNotFound)
	}
	if err := s.allowSend(ctx, email); err != nil {
		return err
	}

	code, hash, err := newCode()
	if err != nil {
		return domain.Wrap(domain.ErrInternal, msgUnexpected, err)
	}
	if err := s.accounts.SetCode(ctx, a.AccountID, domain.CodeLogin, hash, s.now().Add(s.codeTTL)); err != nil {
		return domain.Wrap(domain.ErrInternal, msgUnexpected, err)
	}
	s.sendCode(ctx, domain.CodeLogin, email, code)
	return nil
}

func (s *service) RequestSignupCode(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return err
	}
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Wrap(domain.ErrInternal, msgSignupLookup, err)
	}
	if a != nil && a.Registered() {
		return domain.NewError(domain.ErrConflict, msgEmailTaken)
	}
	if err := s.allowSend(ctx, email); err != nil {
		return err
	}

	code, hash, err := newCode()
	if err != nil {
		return domain.Wrap(domain.ErrInternal, msgSignupFailed, err)
	}
	now := s.now().UTC()
	expiry := now.Add(s.codeTTL)
	if a != nil {
		err = s.accounts.SetCode(ctx, a.AccountID, domain.CodeSignup, hash, expiry)
	} else {
		err = s.accounts.Put(ctx, &domain.Account{
			AccountID:       id.New(),
			Email:           email,
			SignupOTP:       hash,
			SignupOTPExpiry: &expiry,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if err != nil {
		return domain.Wrap(domain.ErrInternal, msgSignupFailed, err)
	}
	s.sendCode(ctx, domain.CodeSignup, email, code)
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || !otp.Valid(code) {
		return "", domain.NewError(domain.ErrBadRequest, msgOTPFormat)
	}
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("otp account lookup failed", "err", err)
		}
		return "", domain.NewError(domain.ErrBadRequest, msgOTPNoAccount)
	}

	kind, hash, expiry, ok := a.ActiveCode()
	if !ok {
		return "", domain.NewError(domain.ErrBadRequest, msgOTPMissing)
	}
	if expiry == nil || s.now().After(*expiry) {
		return "", domain.NewError(domain.ErrBadRequest, msgOTPExpired)
	}
	if !otp.Compare(hash, code) {
		s.recordFailure(ctx, a.AccountID, kind)
		return "", domain.NewError(domain.ErrBadRequest, msgOTPMismatch)
	}

	// Concurrent guesses may have burned or replaced the code since it was read.
	err = s.accounts.ConsumeCode(ctx, a.AccountID, kind, hash, s.maxAttempts)
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "", domain.NewError(domain.ErrBadRequest, msgOTPMismatch)
	case err != nil:
		return "", domain.Wrap(domain.ErrInternal, msgOTPVerifyFailed, err)
	}
	if kind == domain.CodeSignup {
		if err := s.accounts.Activate(ctx, a.AccountID, domain.Activation{Provider: domain.ProviderEmail}); err != nil {
			return "", domain.Wrap(domain.ErrInternal, msgOTPVerifyFailed, err)
		}
		a.Role, a.Status, a.Provider = domain.RoleUser, domain.StatusReguler, domain.ProviderEmail
	}

	token, err := s.sessions.Issue(ctx, a)
	if err != nil {
		return "", domain.Wrap(domain.ErrInternal, msgOTPSetupFailed, err)
	}
	return token, nil
}

// recordFailure counts a wrong guess and burns the code once the limit is hit.
func (s *service) recordFailure(ctx context.Context, accountID string, kind domain.CodeKind) {
	n, err := s.accounts.RecordFailedAttempt(ctx, accountID)
	if err != nil {
		slog.Warn("failed to record otp attempt", "account_id", accountID, "err", err)
		return
	}
	if n < s.maxAttempts {
		return
	}
	if err := s.accounts.ClearCode(ctx, accountID, kind); err != nil {
		slog.Warn("failed to clear exhausted otp", "account_id", accountID, "kind", kind, "err", err)
	}
}

func (s *service) allowSend(ctx context.Context, email string) error {
	if s.throttle == nil {
		return nil
	}
	ok, err := s.throttle.Allow(ctx, email)
	if err != nil {
		// Fails open.
		slog.Warn("otp send throttle unavailable", "err", err)
		return nil
	}
	if !ok {
		return domain.NewError(domain.ErrTooManyRequests, msgTooManyCodes)
	}
	return nil
}

// sendCode mails the code. Delivery failures are logged, not returned.
func (s *service) sendCode(ctx context.Context, kind domain.CodeKind, to, code string) {
	if s.mailer == nil {
		slog.Warn("mailer not configured, code not sent", "kind", kind, "to", to)
		return
	}
	msg, err := codeMessage(kind, to, code, s.codeTTL)
	if err != nil {
		slog.Error("render code email", "kind", kind, "err", err)
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("send code email", "kind", kind, "to", to, "err", err)
	}
}

func checkEmail(email string) error {
	if email == "" {
		return domain.NewError(domain.ErrBadRequest, msgEmailRequired)
	}
	if !validate.Email(email) {
		return domain.NewError(domain.ErrBadRequest, msgInvalidEmail)
	}
	return nil
}

func newCode() (code, hash string, err error) {
	code, err = otp.Generate()
	if err != nil {
		return "", "", err
	}
	hash, err = otp.Hash(code)
	return code, hash, err
}
