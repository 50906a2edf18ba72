package main

import "errors"

// Setup errors
var (
	ErrLoadConfig   = errors.New("load config")
	ErrOpenLogFile  = errors.New("open log file")
	ErrOpenEventLog = errors.New("open event log")
	ErrEnable       = errors.New("enable instrumentation")
	ErrOutputMode   = errors.New("invalid output format")
)

// Stream errors
var (
	ErrOpenStream = errors.New("open stream")
	ErrCopyStream = errors.New("copy stream")
	ErrStatStream = errors.New("stat stream")
)

// Probe errors
var (
	ErrRegisterMetrics = errors.New("register metrics")
	ErrInvalidInterval = errors.New("interval must be positive")
)

// History errors
var (
	ErrNoHistory   = errors.New("history.db_path is not configured")
	ErrOpenHistory = errors.New("open history")
	ErrSaveHistory = errors.New("save history")
)
