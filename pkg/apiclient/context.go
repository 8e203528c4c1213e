package apiclient

import "net/http"

// RequestContext states where a client runs. Interactive clients read the
// credential from the store's own medium and may navigate; server-side clients
// read it from the inbound request's cookies and never navigate.
type RequestContext struct {
	request *http.Request
}

// Interactive returns the context for a client driven directly by a user.
func Interactive() RequestContext {
	return RequestContext{}
}

// ServerSide returns the context for a client created while handling request.
func ServerSide(request *http.Request) RequestContext {
	return RequestContext{request: request}
}

// IsInteractive reports whether the client may navigate.
func (requestContext RequestContext) IsInteractive() bool {
	return requestContext.request == nil
}

// Request returns the inbound request for server-side contexts, nil otherwise.
func (requestContext RequestContext) Request() *http.Request {
	return requestContext.request
}
