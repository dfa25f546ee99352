package models

import (
	"fmt"

	"kisanrakshak/internal/errors"
)

func validationErr(message string) error {
	return errors.ValidationError(message)
}

func validationErrf(format string, args ...interface{}) error {
	return errors.ValidationError(fmt.Sprintf(format, args...))
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
