package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leviettung200/ByteDefence/internal/auth"
)

// LoginService checks credentials against the user directory.
type LoginService interface {
	Login(username, password string) (*auth.AuthResult, error)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddLoginCORS sets the permissive headers browser clients of the login
// endpoint rely on.
func AddLoginCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
}

// LoginCORS applies AddLoginCORS before next runs, so responses written by
// middleware such as the rate limiter stay readable cross-origin.
func LoginCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLoginCORS(w.Header())
		next.ServeHTTP(w, r)
	})
}

// Login serves POST and OPTIONS /api/auth/login. Error bodies are plain text.
func Login(svc LoginService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		AddLoginCORS(w.Header())
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		var req *loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req == nil {
			writeText(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		result, err := svc.Login(req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("login failed")
			}
			writeText(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		zerolog.Ctx(r.Context()).Info().Str("user_id", result.User.ID).Msg("user logged in")
		writeJSON(w, http.StatusOK, result)
	}
}

// TokenIssuer signs BookStore tokens for arbitrary callers.
type TokenIssuer interface {
	IssueToken(userID, userName, role string) (string, error)
	ExpiresInSeconds() int
	DemoToken() string
}

type tokenRequest struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Role     *string `json:"role"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
	TokenType string `json:"tokenType"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Token serves POST /api/token, issuing a test JWT.
func Token(issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req *tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
			return
		}
		if req == nil || req.UserID == "" || req.UserName == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "userId and userName are required"})
			return
		}

		role := string(auth.RoleUser)
		if req.Role != nil {
			role = *req.Role
		}
		token, err := issuer.IssueToken(req.UserID, req.UserName, role)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("issue token")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Could not issue token"})
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresIn: issuer.ExpiresInSeconds(), TokenType: "Bearer"})
	}
}

// ProtectedOperations lists the BookStore mutations that need a bearer token.
var ProtectedOperations = []string{"createBook", "updateBook", "deleteBook", "createAuthor", "createReview"}

type authInfo struct {
	Message             string   `json:"message"`
	StaticDemoToken     string   `json:"staticDemoToken"`
	Usage               string   `json:"usage"`
	GenerateJWTEndpoint string   `json:"generateJwtEndpoint"`
	ProtectedOperations []string `json:"protectedOperations"`
}

// AuthInfo serves GET /api/auth-info.
func AuthInfo(issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, authInfo{
			Message:             "BookStore API Authentication Information",
			StaticDemoToken:     issuer.DemoToken(),
			Usage:               "Add 'Authorization: Bearer <token>' header to your requests",
			GenerateJWTEndpoint: `POST /api/token with { "userId": "user-1", "userName": "Test User" }`,
			ProtectedOperations: ProtectedOperations,
		})
	}
}
