package error

import (
	"fmt"
	"net/http"
)

// GatewayError is returned when the remote WhatsApp gateway rejects a call
// or answers with a non-2xx status.
type GatewayError struct {
	Operation string
	Status    int
	Body      string
	Err       error
}

func (err *GatewayError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("gateway %s failed: %v", err.Operation, err.Err)
	}
	return fmt.Sprintf("gateway %s failed with status %d: %s", err.Operation, err.Status, err.Body)
}

func (err *GatewayError) Unwrap() error {
	return err.Err
}

func (err *GatewayError) ErrCode() string {
	return "GATEWAY_ERROR"
}

func (err *GatewayError) StatusCode() int {
	return http.StatusBadGateway
}
