package http

import (
	"net/http"

	"github.com/IgorGrieder/encurtador-qr/internal/constants"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/auth"
	"github.com/IgorGrieder/encurtador-qr/internal/transport/http/middleware"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type signupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,maxbytes=72"`
	Name         string `json:"name" validate:"required,notblank,max=120"`
	ProfileImage string `json:"profile_image,omitempty" validate:"omitempty,http_url"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		writeServiceError(w, r, err, "sign up")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessSignedUp, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "log in")
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	httputils.WriteAPISuccess(w, r, constants.SuccessLoggedIn, loginResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	if err := h.svc.Logout(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "log out")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLoggedOut, nil)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	user, err := h.svc.Profile(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "load profile")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessUserFound, toUserResponse(user))
}
