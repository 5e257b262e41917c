package constants

// Human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgRateLimited        = "Too many requests, try again later"

	// Shortener-specific messages
	MsgInvalidURL   = "Invalid URL (must be http or https)"
	MsgLinkNotFound = "Link not found"
	MsgQRNotFound   = "QR code not found"
	MsgAliasTaken   = "Custom back half already exists"

	// Auth-specific messages
	MsgEmailTaken         = "User with this email already exists"
	MsgInvalidCredentials = "Invalid email or password"

	// Success messages
	MsgLinkCreated = "Tiny url created successfully"
	MsgLinkUpdated = "Tiny url details updated successfully"
	MsgLinkDeleted = "Tiny url deleted successfully"
	MsgSignedUp    = "User signed up successfully"
	MsgLoggedIn    = "User logged in successfully"
	MsgLoggedOut   = "User logged out successfully"
)
