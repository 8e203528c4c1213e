package credentialstore

import "errors"

var (
	// ErrUnsupportedScheme indicates that no store is available for the URL scheme.
	ErrUnsupportedScheme = errors.New("credential_store.unsupported_scheme")
	// ErrEmptyURL indicates that a durable store was requested without a URL.
	ErrEmptyURL = errors.New("credential_store.empty_url")
	// ErrSQLiteEmptyPath indicates that a sqlite URL carried no database path.
	ErrSQLiteEmptyPath = errors.New("credential_store.sqlite.empty_path")
	// ErrMissingResponseWriter indicates that a cookie store cannot emit Set-Cookie headers.
	ErrMissingResponseWriter = errors.New("credential_store.cookie.missing_response_writer")

	errSQLiteInvalidURL = errors.New("credential_store.sqlite.invalid_url")
	errNoScheme         = errors.New("credential_store.no_scheme")
)
