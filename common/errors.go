package common

import (
	"errors"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrMetadataNotFound  = errors.New("metadata file not found")
	ErrMalformedMetadata = errors.New("malformed metadata")
	ErrTypeMismatch      = errors.New("illegal column type")
)
