package pdf

import "fmt"

// ErrorKind classifies document failures
type ErrorKind string

const (
	ErrorKindValidate  ErrorKind = "validate"
	ErrorKindInspect   ErrorKind = "inspect"
	ErrorKindOpen      ErrorKind = "open"
	ErrorKindPage      ErrorKind = "page"
	ErrorKindEncrypted ErrorKind = "encrypted"
)

// DocumentError is a failure reading a report file. Page is zero for
// document-level failures.
type DocumentError struct {
	Kind ErrorKind
	Path string
	Page int
	Err  error
}

func (e *DocumentError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s error in %s page %d: %v", e.Kind, e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
