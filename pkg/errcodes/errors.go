package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

// PermissionDenied returns a 403 error for a storage object the provider
// refused to read.
func PermissionDenied(resource string) error {
	return &Error{
		http.StatusForbidden,
		"Permission denied for " + resource + ".",
		"permission_denied",
	}
}

// NotADirectory returns a 400 error for a listing request against something
// that isn't a directory.
func NotADirectory(handle string) error {
	return &Error{
		http.StatusBadRequest,
		fmt.Sprintf("%q is not a directory.", handle),
		"not_a_directory",
	}
}

// IsADirectory returns a 400 error for a content read against a directory.
func IsADirectory(handle string) error {
	return &Error{
		http.StatusBadRequest,
		fmt.Sprintf("%q is a directory.", handle),
		"is_a_directory",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}
