// Package tenant manages the organizations (law firms and consultancies)
// that own cases. Every case row is scoped to a tenant; this module is
// where tenants are provisioned and their API credentials verified.
package tenant

import (
	"regexp"
	"time"

	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

// Tenant is one organization.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Slug is lowercase kebab-case, unique across tenants
//   - SecretHash never leaves the module; the plaintext secret is
//     returned exactly once, at creation
type Tenant struct {
	ID         domain.TenantID `json:"id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	SecretHash string          `json:"-"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateNew checks creation invariants.
func ValidateNew(name, slug string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeIncompleteInput, "tenant name is required")
	}
	if len(name) > 128 {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant name exceeds 128 characters")
	}
	if !slugPattern.MatchString(slug) {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant slug must be lowercase kebab-case")
	}
	return nil
}
