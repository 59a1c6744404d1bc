package models

// User is the stored credential record keyed by name.
// PinHash is empty for accounts created with the admin code.
type User struct {
	Name    string `json:"name"`
	PinHash string `json:"-"`
}

type CreateAccountRequest struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`
}

type LoginRequest struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse carries the tokens plus the session values the view caches.
type LoginResponse struct {
	AuthTokens
	CurrentUser string `json:"currentUser"`
	IsAdmin     bool   `json:"isAdmin"`
}

type SessionInfo struct {
	CurrentUser string `json:"currentUser"`
	IsAdmin     bool   `json:"isAdmin"`
}
