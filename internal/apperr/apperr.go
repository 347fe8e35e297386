// Copyright 2026 The NexusSuite Authors
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

// Package apperr defines the error taxonomy shared by every core component.
//
// Callers classify failures with errors.Is against the sentinels below. Typed
// errors (SuspendedError, InvariantError, UnavailableError) carry details and
// still match their sentinel.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthenticated means no actor could be resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrTenantSuspended means the tenant is suspended and accepts no mutations.
	ErrTenantSuspended = errors.New("tenant suspended")
	// ErrForbidden means the actor lacks the role for the requested action.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the entity is absent or belongs to another tenant.
	ErrNotFound = errors.New("not found")
	// ErrInvariantViolation means the request would break a domain invariant.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrStorageUnavailable wraps any underlying store failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrAuditWriteFailed is internal only and never returned to callers.
	ErrAuditWriteFailed = errors.New("audit write failed")
	// ErrInviteExpired means the invite is pending but past its expiry.
	ErrInviteExpired = errors.New("invite expired")
	// ErrInviteAlreadyUsed means the invite was already accepted.
	ErrInviteAlreadyUsed = errors.New("invite already used")
	// ErrInvalidInput means the payload does not fit the entity schema.
	ErrInvalidInput = errors.New("invalid input")
)

// SuspendedError is returned by the suspension gate.
type SuspendedError struct {
	Reason      string
	SuspendedAt *time.Time
}

func (e *SuspendedError) Error() string {
	if e.Reason == "" {
		return ErrTenantSuspended.Error()
	}
	return fmt.Sprintf("%s: %s", ErrTenantSuspended, e.Reason)
}

func (e *SuspendedError) Is(target error) bool {
	return target == ErrTenantSuspended
}

// Suspended builds a SuspendedError.
func Suspended(reason string, at *time.Time) error {
	return &SuspendedError{Reason: reason, SuspendedAt: at}
}

// InvariantError carries an actionable message for the caller.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, e.Message)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// Invariant builds an InvariantError.
func Invariant(format string, args ...any) error {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// UnavailableError wraps a store failure while keeping the cause in the chain.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageUnavailable, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Unavailable wraps err as a storage failure. Errors that already carry a
// taxonomy classification are returned unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}

// Invalid builds an ErrInvalidInput with a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Classified reports whether err already matches one of the taxonomy sentinels.
func Classified(err error) bool {
	for _, s := range []error{
		ErrUnauthenticated, ErrTenantSuspended, ErrForbidden, ErrNotFound,
		ErrInvariantViolation, ErrStorageUnavailable, ErrInviteExpired,
		ErrInviteAlreadyUsed, ErrInvalidInput,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
