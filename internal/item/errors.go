package item

import "errors"

var (
	ErrValidation  = errors.New("validation failed")
	ErrStorage     = errors.New("storage failed")
	ErrPersistence = errors.New("persistence failed")
	ErrNotFound    = errors.New("item not found")
)
