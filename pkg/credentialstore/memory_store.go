package credentialstore

import (
	"net/http"
	"sync"
	"time"
)

// MemoryStore keeps the credential in process memory. Intended for tests and dev.
type MemoryStore struct {
	mutex     sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Read returns the stored credential, or the request cookie when a request is supplied.
func (store *MemoryStore) Read(request *http.Request) string {
	if request != nil {
		return ReadRequestCookie(request)
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.token == "" {
		return ""
	}
	if !store.expiresAt.After(store.now()) {
		store.token = ""
		return ""
	}
	return store.token
}

// Write replaces the stored credential.
func (store *MemoryStore) Write(token string, options Options) error {
	options = options.normalized()
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.token = token
	store.expiresAt = store.now().Add(options.MaxAge)
	return nil
}

// Clear removes the stored credential.
func (store *MemoryStore) Clear() error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.token = ""
	store.expiresAt = time.Time{}
	return nil
}
