// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrValidation indicates a raw row failed normalization.
	ErrValidation = errors.New("validation failed")

	// ErrSourceUnavailable indicates a provider could not reach its backing store.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEmptySource indicates a provider's backing store held no rows at all.
	ErrEmptySource = errors.New("source contains no rows")

	// ErrEmptyQuery indicates a query carried no valid ticker symbols.
	ErrEmptyQuery = errors.New("query requires at least one ticker symbol")
)

// ValidationError names the field of a raw row that was missing or invalid.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
