package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrCatalogFull       = errors.New("catalog is full")
	ErrIngredientIndex   = errors.New("ingredient index out of range")
	ErrNothingSelected   = errors.New("no drink selected")
	ErrUnavailable       = errors.New("not enough stock")
	ErrIllegalTransition = errors.New("illegal screen transition")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrUnknownCommand    = errors.New("unknown command")
)
