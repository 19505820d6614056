package plugin

import "errors"

var (
	ErrLibraryNotFound = errors.New("plugin library not found")
)
