package usecase

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/galvinus/lead-conversion/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConvertible checks that the lead carries everything the remote
// service requires: the company becomes the account name and the contact
// fields become the contact. A lead missing these cannot be converted.
func ValidateConvertible(lead *entity.Lead) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(lead.Company) == "" {
		errors = append(errors, ValidationError{"company", "is required for conversion"})
	}
	if strings.TrimSpace(lead.FirstName) == "" {
		errors = append(errors, ValidationError{"firstName", "is required for conversion"})
	}
	if strings.TrimSpace(lead.LastName) == "" {
		errors = append(errors, ValidationError{"lastName", "is required for conversion"})
	}
	if strings.TrimSpace(lead.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required for conversion"})
	} else if _, err := mail.ParseAddress(lead.Email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	return errors
}
