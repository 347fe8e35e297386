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

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nexussuite/clubcore/internal/apperr"
	"github.com/nexussuite/clubcore/internal/observability/logger"
)

// suspendedResponse lets clients render the suspension banner.
type suspendedResponse struct {
	Error       string     `json:"error"`
	Reason      string     `json:"reason"`
	SuspendedAt *time.Time `json:"suspendedAt,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrTenantSuspended), errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvariantViolation), errors.Is(err, apperr.ErrInviteAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInviteExpired):
		return http.StatusGone
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err. Server-side failures are logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var suspended *apperr.SuspendedError
	if errors.As(err, &suspended) {
		respondJSON(w, http.StatusForbidden, suspendedResponse{
			Error:       apperr.ErrTenantSuspended.Error(),
			Reason:      suspended.Reason,
			SuspendedAt: suspended.SuspendedAt,
		})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.StatusCode(status),
			logger.Error(err),
		)
		respondError(w, status, http.StatusText(status))
		return
	}
	respondError(w, status, err.Error())
}
