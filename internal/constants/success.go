package constants

import "net/http"

// APISuccess represents a standardized API success response with code, optional
// message and HTTP status.
type APISuccess struct {
	Code    string
	Message string
	Status  int
}

// Link-related success responses
var (
	SuccessLinkCreated = APISuccess{
		Code:    CodeLinkCreated,
		Message: MsgLinkCreated,
		Status:  http.StatusCreated,
	}
	SuccessLinkUpdated = APISuccess{
		Code:    CodeLinkUpdated,
		Message: MsgLinkUpdated,
		Status:  http.StatusOK,
	}
	SuccessLinkDeleted = APISuccess{
		Code:    CodeLinkDeleted,
		Message: MsgLinkDeleted,
		Status:  http.StatusOK,
	}
	SuccessLinksFound = APISuccess{
		Code:   CodeLinksFound,
		Status: http.StatusOK,
	}
	SuccessDetailsFound = APISuccess{
		Code:   CodeDetailsFound,
		Status: http.StatusOK,
	}
	SuccessStatsFound = APISuccess{
		Code:   CodeStatsFound,
		Status: http.StatusOK,
	}
	SuccessQRCodesFound = APISuccess{
		Code:   CodeQRCodesFound,
		Status: http.StatusOK,
	}
)

// Auth-related success responses
var (
	SuccessSignedUp = APISuccess{
		Code:    CodeSignedUp,
		Message: MsgSignedUp,
		Status:  http.StatusCreated,
	}
	SuccessLoggedIn = APISuccess{
		Code:    CodeLoggedIn,
		Message: MsgLoggedIn,
		Status:  http.StatusOK,
	}
	SuccessLoggedOut = APISuccess{
		Code:    CodeLoggedOut,
		Message: MsgLoggedOut,
		Status:  http.StatusOK,
	}
	SuccessUserFound = APISuccess{
		Code:   CodeUserFound,
		Status: http.StatusOK,
	}
)
