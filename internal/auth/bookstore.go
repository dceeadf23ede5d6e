package auth

import "strings"

// DemoPrincipal is the identity granted to the static demo token.
var DemoPrincipal = Principal{ID: "demo-user", Username: "demo-user", DisplayName: "Demo User", Role: RoleUser}

// BookStoreAuthenticator accepts either the static demo token or a signed JWT.
type BookStoreAuthenticator struct {
	jwt       *JWTManager
	demoToken string
}

func NewBookStoreAuthenticator(manager *JWTManager, demoToken string) *BookStoreAuthenticator {
	return &BookStoreAuthenticator{jwt: manager, demoToken: demoToken}
}

func (a *BookStoreAuthenticator) DemoToken() string {
	return a.demoToken
}

func (a *BookStoreAuthenticator) Authenticate(token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if a.demoToken != "" && token == a.demoToken {
		p := DemoPrincipal
		return &p, nil
	}
	claims, err := a.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	p := claims.Principal()
	return &p, nil
}

// IssueToken signs a token for an arbitrary caller. Role defaults to User.
func (a *BookStoreAuthenticator) IssueToken(userID, userName, role string) (string, error) {
	if role == "" {
		role = string(RoleUser)
	}
	token, _, err := a.jwt.Generate(Principal{
		ID:          userID,
		Username:    userName,
		DisplayName: userName,
		Role:        NormalizeRole(role),
	})
	return token, err
}

func (a *BookStoreAuthenticator) ExpiresInSeconds() int {
	return int(a.jwt.Expiry().Seconds())
}
