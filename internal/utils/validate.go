package utils

import (
	"errors"
	"fmt"
	"regexp"
)

var ErrInvalidVideoID = errors.New("invalid video id")

// YouTube ids are 11 characters today; the bound leaves room for longer ones.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateVideoID rejects ids that could escape the downloads directory or
// break the canonical watch URL.
func ValidateVideoID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVideoID)
	}
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidVideoID, id)
	}
	return nil
}
