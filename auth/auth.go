// Package auth checks login credentials and resolves them to a board role.
// The built-in credential pairs are for demos only.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/GoCodeAlone/postboard/task"
)

// ErrInvalidCredentials is the single error returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is a login entry. Password is a plaintext secret hashed on load;
// PasswordHash takes precedence when both are set.
type User struct {
	Username     string
	Password     string
	PasswordHash string
	Role         task.Role
}

// DefaultUsers returns the two demo logins.
func DefaultUsers() []User {
	return []User{
		{Username: "agency", Password: "agency", Role: task.RoleAgency},
		{Username: "client", Password: "client", Role: task.RoleClient},
	}
}

type account struct {
	hash []byte
	role task.Role
}

// Authenticator verifies usernames and passwords against bcrypt hashes.
type Authenticator struct {
	accounts map[string]account
}

// New builds an Authenticator. cost is the bcrypt cost used for plaintext
// passwords; values outside bcrypt's range fall back to bcrypt.DefaultCost.
func New(users []User, cost int) (*Authenticator, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	a := &Authenticator{accounts: make(map[string]account, len(users))}
	for _, u := range users {
		if u.Username == "" {
			return nil, fmt.Errorf("auth: user with empty username")
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("auth: user %q: %w", u.Username, task.ErrInvalidRole)
		}
		if _, dup := a.accounts[u.Username]; dup {
			return nil, fmt.Errorf("auth: duplicate user %q", u.Username)
		}
		hash := []byte(u.PasswordHash)
		if len(hash) == 0 {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(u.Password), cost)
			if err != nil {
				return nil, fmt.Errorf("auth: hash password for %q: %w", u.Username, err)
			}
		} else if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("auth: user %q: bad password hash: %w", u.Username, err)
		}
		a.accounts[u.Username] = account{hash: hash, role: u.Role}
	}
	return a, nil
}

// Authenticate returns the role bound to username when password matches.
func (a *Authenticator) Authenticate(username, password string) (task.Role, error) {
	acct, ok := a.accounts[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return acct.role, nil
}
