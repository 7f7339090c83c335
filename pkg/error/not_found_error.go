package error

import (
	"fmt"
	"net/http"
)

// NotFoundError reports a missing campaign, account or blacklist entry. Other
// owners' resources are reported the same way so their existence never leaks.
type NotFoundError string

// CampaignNotFound is the error for an unknown or foreign campaign ID.
func CampaignNotFound(id string) NotFoundError {
	return NotFoundError(fmt.Sprintf("campaign %s not found", id))
}

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}
