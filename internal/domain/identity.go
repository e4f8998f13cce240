package domain

import "time"

// Identity is the sign-in record backing a session. UID equals the account id.
// Sessions issued before TokensValidAfter (Unix seconds) are treated as revoked.
type Identity struct {
	UID              string    `json:"uid" dynamodbav:"uid"`
	Email            string    `json:"email" dynamodbav:"email"`
	EmailVerified    bool      `json:"email_verified" dynamodbav:"email_verified"`
	Provider         string    `json:"provider" dynamodbav:"provider"`
	TokensValidAfter int64     `json:"tokens_valid_after" dynamodbav:"tokens_valid_after"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
}
