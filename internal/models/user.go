// internal/models/user.go
package models

// Profile is the remote user record as returned by GET /users/{id}.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// LoginResult is the body of a successful POST /login.
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	UserID      FlexibleID `json:"user_id"`
}

type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Language        string `json:"language"`
	IsAdmin         bool   `json:"is_admin"`
}
