package history

import "errors"

var (
	ErrStoreSave       = errors.New("history: save")
	ErrStoreRead       = errors.New("history: read")
	ErrNotFound        = errors.New("history: snapshot not found")
	ErrInvalidSnapshot = errors.New("history: invalid snapshot")
)
