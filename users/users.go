// Package users is the account collaborator the ftp package consults
// at USER/PASS time and for per-session home-directory resolution.
package users

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// User is one FTP account. Password holds a bcrypt hash, never plaintext.
type User struct {
	Username   string
	Password   string // bcrypt hash
	CustomerID int64
	Home       string // virtual-root-relative home directory, e.g. "/"
	allowedIPs []netip.Prefix
}

// AddIP adds a CIDR (or bare IP, treated as a /32 or /128) to the
// user's allow-list. An empty allow-list means "any address may log in
// as this user", matching the source's default-open behavior.
func (u *User) AddIP(cidr string) error {
	prefix, err := parsePrefix(cidr)
	if err != nil {
		return err
	}
	for _, p := range u.allowedIPs {
		if p == prefix {
			return nil
		}
	}
	u.allowedIPs = append(u.allowedIPs, prefix)
	return nil
}

// RemoveIP removes a previously added entry.
func (u *User) RemoveIP(cidr string) error {
	prefix, err := parsePrefix(cidr)
	if err != nil {
		return err
	}
	result := u.allowedIPs[:0]
	for _, p := range u.allowedIPs {
		if p != prefix {
			result = append(result, p)
		}
	}
	u.allowedIPs = result
	return nil
}

// FindIP reports whether addr is allowed to authenticate as this user.
func (u *User) FindIP(addr netip.Addr) bool {
	if len(u.allowedIPs) == 0 {
		return true
	}
	for _, p := range u.allowedIPs {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func parsePrefix(s string) (netip.Prefix, error) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid IP or CIDR %q: %w", s, err)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Users is the account store the ftp package depends on.
type Users interface {
	// List returns every known account.
	List() (map[string]*User, error)
	// Get finds a user by username. A missing user is not an error: it
	// returns a nil *User with a nil error, so callers can distinguish
	// "no such user" from "store is broken".
	Get(username string) (*User, error)
	// Login verifies a username/password pair against the stored bcrypt
	// hash and the allow-list for addr, returning the matched user.
	Login(username, password string, addr netip.Addr) (*User, error)
}

var _ Users = &LocalUsers{}

// LocalUsers is an in-memory account store, the reference implementation
// used by cmd/ftpd and most of the test suite.
type LocalUsers struct {
	users map[string]*User
	mu    sync.RWMutex
}

// NewLocalUsers creates an empty account store.
func NewLocalUsers() *LocalUsers {
	return &LocalUsers{users: make(map[string]*User)}
}

func (u *LocalUsers) List() (map[string]*User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[string]*User, len(u.users))
	for k, v := range u.users {
		out[k] = v
	}
	return out, nil
}

func (u *LocalUsers) Get(username string) (*User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.users[username], nil
}

// Add creates a new account, hashing password with bcrypt. home is the
// user's virtual-root-relative home directory; an empty home means "/".
func (u *LocalUsers) Add(username, password string, customerID int64, home string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	if home == "" {
		home = "/"
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	newUser := &User{
		Username:   username,
		Password:   string(hash),
		CustomerID: customerID,
		Home:       home,
	}
	u.users[username] = newUser
	return newUser, nil
}

func (u *LocalUsers) Remove(username string) *User {
	u.mu.Lock()
	defer u.mu.Unlock()
	old := u.users[username]
	delete(u.users, username)
	return old
}

// Login implements Users.Login. It never reports which half of the
// username/password pair was wrong.
func (u *LocalUsers) Login(username, password string, addr netip.Addr) (*User, error) {
	u.mu.RLock()
	user, ok := u.users[username]
	u.mu.RUnlock()
	if !ok {
		return nil, errors.New("invalid username or password")
	}
	if !user.FindIP(addr) {
		return nil, errors.New("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New("invalid username or password")
	}
	return user, nil
}
