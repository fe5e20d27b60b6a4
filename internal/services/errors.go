package services

import (
	"errors"
	"fmt"

	"github.com/architeacher/gateways/internal/domain/model"
)

// notFound turns a bare repository miss of the given kind into a domain error
// with a client message. Anything else passes through untouched.
func notFound(err, kind error, format string, id fmt.Stringer) error {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, kind) {
		return model.NewDomainError(kind, format, id.String())
	}

	return err
}
