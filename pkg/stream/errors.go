package stream

import "errors"

var (
	ErrUnknownScheme    = errors.New("stream: unknown scheme")
	ErrSchemeRegistered = errors.New("stream: scheme already registered")
	ErrNotRegistered    = errors.New("stream: no wrapper registered for scheme")
	ErrInvalidMode      = errors.New("stream: invalid open mode")
	ErrUnsupported      = errors.New("stream: operation not supported")
	ErrInvalidURL       = errors.New("stream: invalid url")
	ErrHTTPStatus       = errors.New("stream: unexpected http status")
	ErrHTTPRequest      = errors.New("stream: http request failed")
	ErrLookupOwner      = errors.New("stream: lookup owner")
)
