package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	StatusReguler    = "reguler"
	StatusMembership = "membership"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// Account is the landing-site user record. An account with an empty Role is a
// pending signup that has not verified its code yet.
type Account struct {
	AccountID        string     `json:"uid" dynamodbav:"account_id"`
	Email            string     `json:"email" dynamodbav:"email"`
	Role             string     `json:"role,omitempty" dynamodbav:"role,omitempty"`
	Status           string     `json:"status,omitempty" dynamodbav:"status,omitempty"`
	Provider         string     `json:"provider,omitempty" dynamodbav:"provider,omitempty"`
	DisplayName      string     `json:"displayName,omitempty" dynamodbav:"display_name,omitempty"`
	Image            string     `json:"image,omitempty" dynamodbav:"image,omitempty"`
	ResetToken       string     `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetTokenExpiry *time.Time `json:"-" dynamodbav:"reset_token_expiry,omitempty"`
	SignupOTP        string     `json:"-" dynamodbav:"signup_otp,omitempty"`
	SignupOTPExpiry  *time.Time `json:"-" dynamodbav:"signup_otp_expiry,omitempty"`
	OTPAttempts      int        `json:"-" dynamodbav:"otp_attempts,omitempty"`
	CreatedAt        time.Time  `json:"-" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"-" dynamodbav:"updated_at"`
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Registered reports whether the account finished signup.
func (a *Account) Registered() bool { return a.Role != "" }

func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }

// AccountView is the public shape returned by the session endpoint.
type AccountView struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
	Status      string `json:"status,omitempty"`
	Provider    string `json:"provider,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Image       string `json:"image,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// View strips OTP material and converts timestamps to Unix milliseconds.
func (a *Account) View() *AccountView {
	return &AccountView{
		UID:         a.AccountID,
		Email:       a.Email,
		Role:        a.Role,
		Status:      a.Status,
		Provider:    a.Provider,
		DisplayName: a.DisplayName,
		Image:       a.Image,
		CreatedAt:   a.CreatedAt.UnixMilli(),
		UpdatedAt:   a.UpdatedAt.UnixMilli(),
	}
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type SessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// CodeKind selects which of the two one-time codes an operation targets.
type CodeKind int

const (
	CodeLogin CodeKind = iota
	CodeSignup
)

func (k CodeKind) String() string {
	if k == CodeSignup {
		return "signup"
	}
	return "login"
}

// ActiveCode returns the pending code hash and expiry. A login code takes
// precedence over a signup code.
func (a *Account) ActiveCode() (kind CodeKind, hash string, expiry *time.Time, ok bool) {
	if a.ResetToken != "" {
		return CodeLogin, a.ResetToken, a.ResetTokenExpiry, true
	}
	if a.SignupOTP != "" {
		return CodeSignup, a.SignupOTP, a.SignupOTPExpiry, true
	}
	return CodeLogin, "", nil, false
}

// Activation describes the fields written when an account becomes registered.
type Activation struct {
	Provider    string
	DisplayName string
	Image       string
}
