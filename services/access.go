package services

import (
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// Reason explains a denied Decision.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the outcome of an access check. The caller decides how to present a
// denial: an API answers 401/403, a page redirects.
type Decision struct {
	Allowed bool
	Reason  Reason
	User    *models.User
}

// Authorize checks user against required. An empty required role only asks for a
// signed-in user.
func Authorize(user *models.User, required models.Role) Decision {
	if user == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	if required != "" && user.Role != required {
		return Decision{Reason: ReasonForbidden, User: user}
	}
	return Decision{Allowed: true, User: user}
}

// Err converts a denial into the matching API error, or nil when allowed.
func (d Decision) Err(required models.Role) error {
	switch d.Reason {
	case ReasonUnauthenticated:
		return errs.NewMissingTokenError()
	case ReasonForbidden:
		return errs.NewInsufficientRoleError(string(required))
	}
	return nil
}
