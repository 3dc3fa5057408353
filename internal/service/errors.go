package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")

	ErrAlreadyFavorited = errors.New("recipe is already in favorites")
	ErrNotFavorited     = errors.New("recipe was not in favorites")
	ErrAlreadyInCart    = errors.New("recipe is already in the shopping cart")
	ErrNotInCart        = errors.New("recipe was not in the shopping cart")

	ErrSelfFollow       = errors.New("you cannot subscribe to yourself")
	ErrAlreadyFollowing = errors.New("you are already subscribed to this user")
	ErrNotFollowing     = errors.New("you are not subscribed to this user")
)

// ruleViolations are client errors that are not tied to a single request field.
var ruleViolations = []error{
	ErrInvalidCredentials,
	ErrAlreadyFavorited,
	ErrNotFavorited,
	ErrAlreadyInCart,
	ErrNotInCart,
	ErrSelfFollow,
	ErrAlreadyFollowing,
	ErrNotFollowing,
}

// IsRuleViolation reports whether err breaks a business rule and should be
// answered with 400.
func IsRuleViolation(err error) bool {
	for _, target := range ruleViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
