package utils

import "fmt"

// RecoverWithError turns a panic into an error; use as `defer RecoverWithError(&err)`.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("got panic: %v", rv)
	}
}
