package auth

import (
	"errors"
	"time"
)

// Storage keys for the persisted session. They match the keys a browser
// build of folio writes to localStorage.
const (
	KeyUser                  = "user"
	KeyAuthToken             = "auth_token"
	KeyRememberedCredentials = "remembered_credentials"
)

// Status codes carried by LoginResult.
const (
	StatusOK           = 200
	StatusBadRequest   = 400
	StatusUnauthorized = 401
	StatusNotFound     = 404
	StatusServerError  = 500
)

// Result messages shown by the login form.
const (
	MsgLoginSuccess   = "Login successful!"
	MsgRequired       = "Username/email and password are required."
	MsgNotFound       = "No account found with this username or email."
	MsgBadPassword    = "Incorrect password. Please try again."
	MsgServerError    = "Internal server error. Please try again later."
	MsgUnexpected     = "An unexpected error occurred. Please try again."
	MsgResetSent      = "Password reset instructions have been sent to your email."
	MsgResetNoAccount = "No account found with this email address."
)

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account known to the backend.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResult is the outcome of a login attempt. Failures are data, not errors.
type LoginResult struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// ResetResult is the outcome of a password reset request.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Session is a point-in-time copy of the store's state.
type Session struct {
	User     *User  `json:"user"`
	Token    string `json:"token,omitempty"`
	LoggedIn bool   `json:"loggedIn"`
}

// ErrNotLoggedIn is returned by helpers that require a session.
var ErrNotLoggedIn = errors.New("auth: not logged in")

func failure(status int, message string) LoginResult {
	return LoginResult{Success: false, Status: status, Message: message}
}
