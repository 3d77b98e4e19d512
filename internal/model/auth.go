package model

// AccessToken is the object embedded in owner JWT access tokens. Tokens are
// issued by the upstream identity service; this backend only verifies them.
type AccessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
