package config

import "errors"

var (
	ErrReadConfig = errors.New("config: read config file")
	ErrUnmarshal  = errors.New("config: unmarshal")
	ErrInvalid    = errors.New("config: invalid configuration")
	ErrBindFlag   = errors.New("config: bind flag")
)
