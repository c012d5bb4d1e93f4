package config

import (
	"errors"
	"io/fs"
)

// isNotExist reports whether err means the dotenv file is missing, which is
// the normal case outside local development.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
