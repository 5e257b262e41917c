package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/constants"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/encurtador-qr/internal/infrastructure/validation"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/auth"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and validates it. It writes the error
// response itself and reports false when the request must stop.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody)
		return false
	}
	if err := appvalidation.Validate(dst); err != nil {
		apiErr := constants.ErrInvalidRequestBody
		if msg, ok := appvalidation.FirstMessage(err); ok {
			apiErr = apiErr.WithMessage(msg)
		}
		httputils.WriteAPIError(w, r, apiErr)
		return false
	}
	return true
}

// writeServiceError maps domain sentinels to API errors. Anything unknown is
// logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string, fields ...zap.Field) {
	switch {
	case errors.Is(err, links.ErrNotFound):
		httputils.WriteAPIError(w, r, constants.ErrLinkNotFound)
	case errors.Is(err, links.ErrQRNotFound):
		httputils.WriteAPIError(w, r, constants.ErrQRNotFound)
	case errors.Is(err, links.ErrConflict):
		httputils.WriteAPIError(w, r, constants.ErrAliasTaken)
	case errors.Is(err, links.ErrInvalidURL):
		httputils.WriteAPIError(w, r, constants.ErrInvalidURL)
	case errors.Is(err, links.ErrReservedAlias):
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("custom_back_half is reserved"))
	case errors.Is(err, links.ErrRangeTooLong):
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(
			fmt.Sprintf("date range must not exceed %d days", links.MaxStatsDays)))
	case errors.Is(err, links.ErrInvalidRange):
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("from must be <= to"))
	case errors.Is(err, auth.ErrEmailTaken):
		httputils.WriteAPIError(w, r, constants.ErrEmailTaken)
	case errors.Is(err, auth.ErrPasswordTooLong):
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage(
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes)))
	case errors.Is(err, auth.ErrInvalidCredentials):
		httputils.WriteAPIError(w, r, constants.ErrInvalidCredentials)
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrUserNotFound):
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
	default:
		logger.Error("failed to "+op, append(fields, zap.Error(err))...)
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
	}
}

type userResponse struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}

type linkResponse struct {
	Code      string    `json:"code"`
	Alias     string    `json:"alias,omitempty"`
	URL       string    `json:"url"`
	ShortURL  string    `json:"short_url"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toLinkResponse(svc LinkService, link *links.Link) linkResponse {
	return linkResponse{
		Code:      link.Code,
		Alias:     link.Alias,
		URL:       link.TargetURL,
		ShortURL:  svc.ShortURL(link),
		Title:     link.Title,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}
}

type qrResponse struct {
	ID        string    `json:"id"`
	LinkCode  string    `json:"link_code"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toQRResponse(qr *links.QRCode) *qrResponse {
	if qr == nil {
		return nil
	}
	return &qrResponse{
		ID:        qr.ID,
		LinkCode:  qr.LinkCode,
		Image:     qr.Image,
		CreatedAt: qr.CreatedAt,
		UpdatedAt: qr.UpdatedAt,
	}
}

type detailsResponse struct {
	Link   linkResponse `json:"link"`
	QRCode *qrResponse  `json:"qr_code,omitempty"`
	analytics.Summary
}

type qrListingResponse struct {
	qrResponse
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
	Title    string `json:"title,omitempty"`
	Alias    string `json:"alias,omitempty"`
}
