// Package session owns the signed-in identity of one console instance and is
// the only place that writes or clears the persisted credential.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tyemirov/hoteldesk/internal/metrics"
	"github.com/tyemirov/hoteldesk/pkg/apiclient"
	"github.com/tyemirov/hoteldesk/pkg/credentialstore"
	"github.com/tyemirov/hoteldesk/pkg/navigation"
	"go.uber.org/zap"
)

const (
	loginPath    = "login"
	registerPath = "register"
	mePath       = "me"
)

// API is the subset of the request client used by the session.
type API interface {
	Get(ctx context.Context, path string) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	SetBearerToken(token string)
}

// Context holds the session state. Overlapping sign-ins are not deduplicated:
// the last one to finish decides the final state.
type Context struct {
	api       API
	store     credentialstore.Store
	navigator navigation.Navigator
	logger    *zap.Logger
	metrics   metrics.Recorder

	mutex    sync.Mutex
	identity Identity
	phase    Phase
}

// Option configures the Context.
type Option func(*Context)

// WithNavigator sets where sign-in, sign-up, and sign-out send the user.
func WithNavigator(navigator navigation.Navigator) Option {
	return func(sessionContext *Context) { sessionContext.navigator = navigator }
}

// WithLogger sets a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(sessionContext *Context) { sessionContext.logger = logger }
}

// WithMetrics sets the event recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(sessionContext *Context) { sessionContext.metrics = recorder }
}

// New constructs an anonymous session context.
func New(api API, store credentialstore.Store, options ...Option) (*Context, error) {
	if api == nil {
		return nil, fmt.Errorf("session.new: %w", ErrMissingAPI)
	}
	if store == nil {
		return nil, fmt.Errorf("session.new: %w", ErrMissingStore)
	}
	sessionContext := &Context{
		api:       api,
		store:     store,
		navigator: navigation.Discard,
		logger:    zap.NewNop(),
		metrics:   metrics.Nop{},
	}
	for _, option := range options {
		option(sessionContext)
	}
	if sessionContext.navigator == nil {
		sessionContext.navigator = navigation.Discard
	}
	if sessionContext.logger == nil {
		sessionContext.logger = zap.NewNop()
	}
	if sessionContext.metrics == nil {
		sessionContext.metrics = metrics.Nop{}
	}
	return sessionContext, nil
}

// Bootstrap rehydrates the identity from a persisted credential. Without a
// credential it makes no call. A failed lookup signs the session out and the
// failure is returned for logging; the session is then anonymous.
func (sessionContext *Context) Bootstrap(ctx context.Context) error {
	token := sessionContext.store.Read(nil)
	if token == "" {
		sessionContext.setAnonymous()
		return nil
	}

	identity, lookupErr := sessionContext.lookupIdentity(ctx)
	if lookupErr != nil {
		sessionContext.metrics.Increment(metrics.EventBootstrapFailed)
		sessionContext.logger.Warn("session bootstrap failed",
			zap.String("code", "session.bootstrap.failed"),
			zap.Error(lookupErr))
		sessionContext.SignOut()
		return fmt.Errorf("session.bootstrap: %w", lookupErr)
	}

	sessionContext.mutex.Lock()
	sessionContext.identity = identity
	sessionContext.phase = PhaseAuthenticated
	sessionContext.mutex.Unlock()
	sessionContext.metrics.Increment(metrics.EventBootstrapSucceeded)
	return nil
}

// SignIn posts credentials to /login. On success the token is persisted for
// 30 days, the request client starts sending it, and the user lands on the
// primary listing. On failure the state is left as it was.
func (sessionContext *Context) SignIn(ctx context.Context, credentials SignInCredentials) Outcome {
	outcome := sessionContext.authenticate(ctx, loginPath, credentials, credentials.Email, SignInFailedMessage)
	if outcome.Succeeded() {
		sessionContext.metrics.Increment(metrics.EventSignInSucceeded)
		outcome.Message = SignInSucceededMessage
	} else {
		sessionContext.metrics.Increment(metrics.EventSignInFailed)
	}
	return outcome
}

// SignUp posts a registration to /register with the same contract as SignIn.
func (sessionContext *Context) SignUp(ctx context.Context, credentials SignUpCredentials) Outcome {
	outcome := sessionContext.authenticate(ctx, registerPath, credentials, credentials.Email, SignUpFailedMessage)
	if outcome.Succeeded() {
		sessionContext.metrics.Increment(metrics.EventSignUpSucceeded)
		outcome.Message = SignUpSucceededMessage
	} else {
		sessionContext.metrics.Increment(metrics.EventSignUpFailed)
	}
	return outcome
}

// SignOut clears the credential, forgets the identity, and returns the user
// to the entry screen. Calling it again is harmless.
func (sessionContext *Context) SignOut() {
	if clearErr := sessionContext.store.Clear(); clearErr != nil {
		sessionContext.logger.Error("credential clear failed",
			zap.String("code", "session.sign_out.clear_failed"),
			zap.Error(clearErr))
	}
	sessionContext.setAnonymous()
	sessionContext.metrics.Increment(metrics.EventSignOut)
	sessionContext.navigator.Navigate(navigation.EntryRoute)
}

// Teardown drops the in-memory identity without touching storage or navigating.
func (sessionContext *Context) Teardown() {
	sessionContext.setAnonymous()
}

// State returns the current snapshot.
func (sessionContext *Context) State() State {
	sessionContext.mutex.Lock()
	defer sessionContext.mutex.Unlock()
	return State{
		Identity:        sessionContext.identity,
		IsAuthenticated: sessionContext.identity.Email != "",
	}
}

// Identity returns the current identity; empty when anonymous.
func (sessionContext *Context) Identity() Identity {
	return sessionContext.State().Identity
}

// IsAuthenticated reports whether an identity email is known.
func (sessionContext *Context) IsAuthenticated() bool {
	return sessionContext.State().IsAuthenticated
}

// Phase returns the lifecycle position.
func (sessionContext *Context) Phase() Phase {
	sessionContext.mutex.Lock()
	defer sessionContext.mutex.Unlock()
	return sessionContext.phase
}

func (sessionContext *Context) authenticate(ctx context.Context, path string, body any, email string, fallbackMessage string) Outcome {
	sessionContext.mutex.Lock()
	previousPhase := sessionContext.phase
	sessionContext.phase = PhaseAuthenticating
	sessionContext.mutex.Unlock()

	token, requestErr := sessionContext.requestToken(ctx, path, body)
	if requestErr == nil {
		requestErr = sessionContext.store.Write(token, credentialstore.DefaultOptions())
	}
	if requestErr != nil {
		sessionContext.mutex.Lock()
		if sessionContext.phase == PhaseAuthenticating {
			sessionContext.phase = previousPhase
		}
		sessionContext.mutex.Unlock()
		sessionContext.logger.Info("authentication rejected",
			zap.String("code", "session."+path+".failed"),
			zap.String("email", email),
			zap.Error(requestErr))
		return Outcome{
			Message: apiclient.MessageOf(requestErr, fallbackMessage),
			Err:     requestErr,
		}
	}

	identity := Identity{Email: email}
	sessionContext.mutex.Lock()
	sessionContext.identity = identity
	sessionContext.phase = PhaseAuthenticated
	sessionContext.mutex.Unlock()

	sessionContext.api.SetBearerToken(token)
	sessionContext.navigator.Navigate(navigation.PrimaryListingRoute)
	return Outcome{Identity: identity}
}

func (sessionContext *Context) requestToken(ctx context.Context, path string, body any) (string, error) {
	response, postErr := sessionContext.api.Post(ctx, path, body)
	if postErr != nil {
		return "", postErr
	}
	var payload struct {
		Token string `json:"token"`
	}
	if decodeErr := response.DecodeJSON(&payload); decodeErr != nil {
		return "", decodeErr
	}
	if strings.TrimSpace(payload.Token) == "" {
		return "", ErrMissingToken
	}
	return payload.Token, nil
}

func (sessionContext *Context) lookupIdentity(ctx context.Context) (Identity, error) {
	response, getErr := sessionContext.api.Get(ctx, mePath)
	if getErr != nil {
		return Identity{}, getErr
	}
	var payload struct {
		Me Identity `json:"me"`
	}
	if decodeErr := response.DecodeJSON(&payload); decodeErr != nil {
		return Identity{}, decodeErr
	}
	if strings.TrimSpace(payload.Me.Email) == "" {
		return Identity{}, ErrEmptyIdentity
	}
	return payload.Me, nil
}

func (sessionContext *Context) setAnonymous() {
	sessionContext.mutex.Lock()
	defer sessionContext.mutex.Unlock()
	sessionContext.identity = Identity{}
	sessionContext.phase = PhaseAnonymous
}
