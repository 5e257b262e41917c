package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Shortener-specific codes
	CodeInvalidURL   = "INVALID_URL"
	CodeLinkNotFound = "LINK_NOT_FOUND"
	CodeQRNotFound   = "QR_NOT_FOUND"
	CodeAliasTaken   = "ALIAS_TAKEN"

	// Auth-specific codes
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Success codes
	CodeLinkCreated  = "LINK_CREATED"
	CodeLinkUpdated  = "LINK_UPDATED"
	CodeLinkDeleted  = "LINK_DELETED"
	CodeLinksFound   = "LINKS_FOUND"
	CodeDetailsFound = "DETAILS_FOUND"
	CodeStatsFound   = "STATS_FOUND"
	CodeQRCodesFound = "QR_CODES_FOUND"
	CodeSignedUp     = "SIGNED_UP"
	CodeLoggedIn     = "LOGGED_IN"
	CodeLoggedOut    = "LOGGED_OUT"
	CodeUserFound    = "USER_FOUND"
)
