package error

import "net/http"

// GenericError is implemented by every error the REST layer knows how to render.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}

type ForbiddenError string

func (err ForbiddenError) Error() string {
	return string(err)
}

func (err ForbiddenError) ErrCode() string {
	return "FORBIDDEN"
}

func (err ForbiddenError) StatusCode() int {
	return http.StatusForbidden
}
