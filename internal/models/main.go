// Package models defines the core data structures for products, roles and
// authenticated identities.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Role is the coarse permission class carried inside a token.
type Role string

const (
	// RoleAdmin may mutate the product catalog.
	RoleAdmin Role = "admin"
	// RoleUser may only read the product catalog.
	RoleUser Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Identity is the result of a successful token verification.
type Identity struct {
	// Principal is the username the token was issued to.
	Principal string
	// Role is the role claim of the token.
	Role Role
	// TokenID is the unique token identifier (jti).
	TokenID string
	// ExpiresAt is the instant the token stops being valid.
	ExpiresAt time.Time
}

// Product is a single insurance product record.
type Product struct {
	// ID is assigned by the store and unique within it.
	ID int64 `json:"id"`
	// Name is the display name of the product.
	Name string `json:"name"`
	// Description is a free-form description.
	Description string `json:"description"`
	// Price is the premium, non-negative.
	Price float64 `json:"price"`
	// Coverage describes what the product covers.
	Coverage string `json:"coverage"`
	// Deductible is the deductible amount, non-negative.
	Deductible float64 `json:"deductible"`
}

// Validate checks the numeric invariants of a complete product.
func (p Product) Validate() error {
	if err := checkAmount("price", p.Price); err != nil {
		return err
	}
	return checkAmount("deductible", p.Deductible)
}

// ProductPatch carries product fields for create and update requests.
// A nil field was not present in the request.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Coverage    *string  `json:"coverage,omitempty"`
	Deductible  *float64 `json:"deductible,omitempty"`
}

// ValidateCreate requires every field to be present and the amounts to be valid.
func (p ProductPatch) ValidateCreate() error {
	switch {
	case p.Name == nil:
		return missingField("name")
	case p.Description == nil:
		return missingField("description")
	case p.Price == nil:
		return missingField("price")
	case p.Coverage == nil:
		return missingField("coverage")
	case p.Deductible == nil:
		return missingField("deductible")
	}
	return p.validateAmounts()
}

// ValidateUpdate checks only the amounts that are present.
func (p ProductPatch) ValidateUpdate() error {
	return p.validateAmounts()
}

func (p ProductPatch) validateAmounts() error {
	if p.Price != nil {
		if err := checkAmount("price", *p.Price); err != nil {
			return err
		}
	}
	if p.Deductible != nil {
		if err := checkAmount("deductible", *p.Deductible); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the present fields into dst and returns the result.
func (p ProductPatch) Apply(dst Product) Product {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Coverage != nil {
		dst.Coverage = *p.Coverage
	}
	if p.Deductible != nil {
		dst.Deductible = *p.Deductible
	}
	return dst
}

// FormatPrice renders an amount as US dollars with two decimals.
func FormatPrice(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func missingField(field string) error {
	return &ValidationError{Field: field, Reason: "Missing required field: " + field}
}

func checkAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &ValidationError{Field: field, Reason: strings.ToUpper(field[:1]) + field[1:] + " must be a non-negative number"}
	}
	return nil
}
