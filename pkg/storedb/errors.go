package storedb

import "errors"

var (
	ErrOpen    = errors.New("storedb: open")
	ErrMigrate = errors.New("storedb: migrate")
)
