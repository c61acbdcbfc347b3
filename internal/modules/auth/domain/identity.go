package domain

// Identity is who a bearer token speaks for.
type Identity struct {
	ID   string `json:"user_id"`
	Role string `json:"role,omitempty"`
	Name string `json:"name,omitempty"`
}

// CredentialStore keeps the console's bearer token between runs.
type CredentialStore interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
}
