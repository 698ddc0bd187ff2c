package auth

import (
	"net/http"
	"time"

	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/request"
)

type CookieConfig struct {
	Secure bool
	Domain string
}

type Handlers struct {
	svc       *Service
	cookies   CookieConfig
	maxUpload int64
}

func NewHandlers(svc *Service, cookies CookieConfig, maxUploadBytes int64) *Handlers {
	return &Handlers{svc: svc, cookies: cookies, maxUpload: maxUploadBytes}
}

type loginResponse struct {
	User         *Account `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// Register handles POST /users/register (multipart/form-data).
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) error {
	if err := request.ParseMultipart(w, r, h.maxUpload); err != nil {
		return err
	}

	avatar, closeAvatar, err := request.FormFile(r, "avatar")
	if err != nil {
		return err
	}
	defer closeAvatar()

	cover, closeCover, err := request.FormFile(r, "coverImage")
	if err != nil {
		return err
	}
	defer closeCover()

	account, err := h.svc.Register(r.Context(), RegisterInput{
		FullName:   r.FormValue("fullName"),
		Email:      r.FormValue("email"),
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return err
	}

	return apperrors.Respond(w, r, http.StatusCreated, account, "User registered successfully")
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var in LoginInput
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}

	account, pair, err := h.svc.Login(r.Context(), in)
	if err != nil {
		return err
	}

	h.setTokenCookies(w, pair)
	return apperrors.Respond(w, r, http.StatusOK, loginResponse{
		User:         account,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) error {
	account, err := RequireAccount(r.Context())
	if err != nil {
		return err
	}

	if err := h.svc.Logout(r.Context(), account.ID); err != nil {
		return err
	}

	h.clearTokenCookies(w)
	return apperrors.Respond(w, r, http.StatusOK, nil, "User logged out")
}

// Refresh accepts the refresh token from its cookie or a JSON body.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) error {
	var token string
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		// an unreadable body counts as no token at all
		if err := request.DecodeJSON(w, r, &body); err == nil {
			token = body.RefreshToken
		}
	}

	pair, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		return err
	}

	h.setTokenCookies(w, pair)
	return apperrors.Respond(w, r, http.StatusOK, pair, "Access token refreshed")
}

func (h *Handlers) CurrentAccount(w http.ResponseWriter, r *http.Request) error {
	account, err := RequireAccount(r.Context())
	if err != nil {
		return err
	}
	return apperrors.Respond(w, r, http.StatusOK, account, "Current user fetched successfully")
}

func (h *Handlers) setTokenCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, h.cookie(AccessTokenCookie, pair.AccessToken, time.Until(pair.AccessExpiresAt)))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, pair.RefreshToken, time.Until(pair.RefreshExpiresAt)))
}

func (h *Handlers) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, "", -1))
}

func (h *Handlers) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
