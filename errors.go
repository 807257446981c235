package glbpack

import "errors"

var (
	ErrMalformedContainer = errors.New("glbpack: malformed container")
	ErrSchema             = errors.New("glbpack: invalid glTF document")
	ErrReference          = errors.New("glbpack: unresolved reference")
	ErrLimitExceeded      = errors.New("glbpack: limit exceeded")
	ErrInternal           = errors.New("glbpack: internal invariant violated")
	ErrCanceled           = errors.New("glbpack: canceled")
)
