package session

import "errors"

const (
	// SignInSucceededMessage is reported after a successful sign-in.
	SignInSucceededMessage = "signed in, redirecting to the dashboard"
	// SignInFailedMessage is reported when the service gives no reason for a failed sign-in.
	SignInFailedMessage = "sign-in failed, check your credentials"
	// SignUpSucceededMessage is reported after a successful registration.
	SignUpSucceededMessage = "account created, redirecting to the dashboard"
	// SignUpFailedMessage is reported when the service gives no reason for a failed registration.
	SignUpFailedMessage = "sign-up failed"
)

var (
	// ErrMissingToken indicates a 2xx sign-in or sign-up response without a token.
	ErrMissingToken = errors.New("session.missing_token")
	// ErrEmptyIdentity indicates an identity lookup that returned no email.
	ErrEmptyIdentity = errors.New("session.empty_identity")
	// ErrMissingAPI indicates that the context was built without an API client.
	ErrMissingAPI = errors.New("session.missing_api")
	// ErrMissingStore indicates that the context was built without a credential store.
	ErrMissingStore = errors.New("session.missing_store")
)

// Identity is the signed-in principal as last reported by the service.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// State is the session snapshot. IsAuthenticated is derived from Identity.Email.
type State struct {
	Identity        Identity `json:"identity"`
	IsAuthenticated bool     `json:"is_authenticated"`
}

// Phase is the client-side session lifecycle position.
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
)

func (phase Phase) String() string {
	switch phase {
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// SignInCredentials are posted to /login.
type SignInCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpCredentials are posted to /register.
type SignUpCredentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Outcome is the result of a sign-in or sign-up. Message is always set and is
// meant for user feedback; Err is nil on success.
type Outcome struct {
	Identity Identity
	Message  string
	Err      error
}

// Succeeded reports whether the operation completed.
func (outcome Outcome) Succeeded() bool {
	return outcome.Err == nil
}
