package service

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNoEligibleCandidate = errors.New("no eligible engineer")
	ErrAlreadyAssigned     = errors.New("booking already assigned")
	ErrPermissionDenied    = errors.New("permission denied")
)
