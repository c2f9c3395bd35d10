package service

import "errors"

// Sentinel kinds returned by Service operations.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBackpressure  = errors.New("ingestion queue full")
	ErrNotFound      = errors.New("not found")
	ErrNoReadiness   = errors.New("no usable biometric record")
	ErrUnknownMetric = errors.New("unknown biometric metric")
)
