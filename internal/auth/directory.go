package auth

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/leviettung200/ByteDefence/internal/domain/orders"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// User is a directory account as exposed to clients.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// AuthResult is the login response body.
type AuthResult struct {
	Token        string    `json:"token"`
	ExpiresAtUTC time.Time `json:"expiresAtUtc"`
	User         User      `json:"user"`
}

// Account seeds a directory entry with a plaintext password, hashed on construction.
type Account struct {
	User     User
	Password string
}

// DefaultAccounts are the demo logins for the order management API.
var DefaultAccounts = []Account{
	{User: UserFromDomain(orders.DemoAdmin), Password: "admin123"},
	{User: UserFromDomain(orders.DemoAnalyst), Password: "user123"},
}

// UserFromDomain converts an order-owning user into a directory user.
func UserFromDomain(u orders.User) User {
	return User{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: NormalizeRole(string(u.Role))}
}

type directoryEntry struct {
	user User
	hash []byte
}

// Directory authenticates usernames and passwords and signs tokens for them.
type Directory struct {
	jwt     *JWTManager
	entries map[string]directoryEntry
}

func NewDirectory(manager *JWTManager, accounts []Account) (*Directory, error) {
	d := &Directory{jwt: manager, entries: make(map[string]directoryEntry, len(accounts))}
	for _, account := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		d.entries[strings.ToLower(account.User.Username)] = directoryEntry{user: account.User, hash: hash}
	}
	return d, nil
}

func (d *Directory) Login(username, password string) (*AuthResult, error) {
	entry, ok := d.entries[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(entry.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := d.IssueToken(entry.user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAtUTC: expiresAt.UTC(), User: entry.user}, nil
}

func (d *Directory) IssueToken(u User) (string, time.Time, error) {
	return d.jwt.Generate(Principal{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Role: u.Role})
}

// Authenticate validates a bearer token into a principal.
func (d *Directory) Authenticate(token string) (*Principal, error) {
	claims, err := d.jwt.Validate(token)
	if err != nil {
		return nil, err
	}
	p := claims.Principal()
	return &p, nil
}

// UserByUsername is case-insensitive.
func (d *Directory) UserByUsername(username string) (User, bool) {
	entry, ok := d.entries[strings.ToLower(strings.TrimSpace(username))]
	return entry.user, ok
}

// UserFromPrincipal resolves by username, then by subject id.
func (d *Directory) UserFromPrincipal(p *Principal) *User {
	if p == nil || strings.TrimSpace(p.Username) == "" {
		return nil
	}
	if u, ok := d.UserByUsername(p.Username); ok {
		return &u
	}
	if p.ID == "" {
		return nil
	}
	for _, entry := range d.entries {
		if strings.EqualFold(entry.user.ID, p.ID) {
			u := entry.user
			return &u
		}
	}
	return nil
}

// Users lists every account; order is unspecified.
func (d *Directory) Users() []User {
	out := make([]User, 0, len(d.entries))
	for _, entry := range d.entries {
		out = append(out, entry.user)
	}
	return out
}
