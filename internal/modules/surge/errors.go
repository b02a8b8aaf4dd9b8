package surge

import (
	"errors"

	"surgecast/internal/features"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrModelInference = errors.New("model inference failed")
	ErrSystem         = errors.New("system error")
)

type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "invalid_input"
	KindModelInference ErrorKind = "model_inference"
	KindSystem         ErrorKind = "system"
)

// Kind classifies err. Unclassified errors count as system errors.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, features.ErrNegativeLag),
		errors.Is(err, features.ErrOutOfRange):
		return KindInvalidInput
	case errors.Is(err, ErrModelInference):
		return KindModelInference
	default:
		return KindSystem
	}
}
