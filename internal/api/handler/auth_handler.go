package handler

import (
	"net/http"
	"time"

	"expense_tracker/internal/api/middleware"
	"expense_tracker/internal/app/service"
	"expense_tracker/internal/common"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService  *service.AuthService
	tokens       *security.TokenService
	cookieSecure bool
}

func NewAuthHandler(authService *service.AuthService, tokens *security.TokenService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, tokens: tokens, cookieSecure: cookieSecure}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Route("/auth", func(auth chi.Router) {
		auth.Post("/login", h.login)
		auth.Post("/logout", h.logout)
		auth.Get("/me", h.me)
	})
}

type registerResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type loginResponse struct {
	Message  string     `json:"message"`
	Role     model.Role `json:"role"`
	Redirect string     `json:"redirect"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, registerResponse{Message: "User created", User: user})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(security.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	common.RespondWithJSON(w, http.StatusOK, loginResponse{
		Message:  "Login successful",
		Role:     res.User.Role,
		Redirect: res.Redirect,
	})
}

// logout overwrites the cookie with an expired empty value. Outstanding
// tokens stay valid until their own expiry.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	common.RespondWithMessage(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Identify(h.tokens, r)
	if err != nil {
		common.RespondWithErr(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, claims)
}
