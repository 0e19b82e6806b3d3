package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Collaborator errors: auth service, CMS, object storage, email.
var (
	ErrUpstream           = errors.New("upstream service failed")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// NewUpstreamError wraps a failure reported by one of the hosted collaborators.
func NewUpstreamError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpstream,
		Message:    fmt.Sprintf("%s request failed", service),
		Details:    causeText(cause),
		Cause:      cause,
	}
}

func NewServiceUnavailableError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is not configured", service),
	}
}

func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
