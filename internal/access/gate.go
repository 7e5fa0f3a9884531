// Package access decides which routes and table actions the current user
// may see. Every decision fails closed: an unknown user holds no roles.
//
// These checks only shape what the console renders. The REST API enforces
// authorization on its own for every request.
package access

import (
	"errors"
	"fmt"

	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// ErrForbidden is returned by Require when the principal lacks the role.
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated user's identity and role set.
type Principal struct {
	Email string
	Name  string
	Roles []string
}

// FromCurrentUser converts the currentUser payload. A nil payload yields a
// nil principal.
func FromCurrentUser(u *v1.CurrentUser) *Principal {
	if u == nil {
		return nil
	}
	name := u.User.FullName
	if name == "" {
		name = u.User.GivenName
	}
	return &Principal{
		Email: u.User.Email,
		Name:  name,
		Roles: u.RoleNames(),
	}
}

// HasRole reports whether p is present and holds role.
func HasRole(p *Principal, role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns nil when p holds role and a wrapped ErrForbidden otherwise.
func Require(p *Principal, role string) error {
	if HasRole(p, role) {
		return nil
	}
	return fmt.Errorf("%w: %s required", ErrForbidden, role)
}

// Visibility is the render decision for a gated element.
type Visibility int

const (
	// Undecided: the current user is still being fetched.
	Undecided Visibility = iota
	Hidden
	Visible
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	default:
		return "undecided"
	}
}

// Decide maps the current-user lookup onto a Visibility. known is false
// while the lookup is pending. An empty role marks a public element.
func Decide(p *Principal, known bool, role string) Visibility {
	if !known {
		return Undecided
	}
	if role == "" || HasRole(p, role) {
		return Visible
	}
	return Hidden
}
