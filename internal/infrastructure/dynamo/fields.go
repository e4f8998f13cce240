package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	attrAccountID        = "account_id"
	attrEmail            = "email"
	attrRole             = "role"
	attrStatus           = "status"
	attrProvider         = "provider"
	attrDisplayName      = "display_name"
	attrImage            = "image"
	attrResetToken       = "reset_token"
	attrResetTokenExpiry = "reset_token_expiry"
	attrSignupOTP        = "signup_otp"
	attrSignupOTPExpiry  = "signup_otp_expiry"
	attrOTPAttempts      = "otp_attempts"
	attrUpdatedAt        = "updated_at"

	attrUID              = "uid"
	attrTokensValidAfter = "tokens_valid_after"

	attrCollection = "collection"
	attrID         = "id"
	attrData       = "data"
)

const emailIndex = "email-index"
