package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateIdentity rejects claims that cannot identify a user of this system.
func ValidateIdentity(identity Identity) error {
	return validate.Struct(identity)
}
