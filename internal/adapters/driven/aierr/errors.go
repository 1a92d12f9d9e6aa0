// Package aierr maps provider failures onto the domain's service errors so
// the core can tell a rate limit from an outage without knowing the provider.
package aierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// maxBody bounds how much of an error body is echoed into messages.
const maxBody = 512

// FromStatus converts a non-2xx HTTP response into an error.
// unavailable is the sentinel for the service kind (LLM or embedding).
func FromStatus(provider string, code int, body []byte, unavailable error) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "..."
	}
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (status %d): %s", domain.ErrRateLimited, provider, code, msg)
	case code == http.StatusUnauthorized || code == http.StatusForbidden || code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s (status %d): %s", unavailable, provider, code, msg)
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, code, msg)
	}
}

// Transport wraps a failure to reach the provider at all.
// Context cancellation passes through untouched.
func Transport(provider string, err error, unavailable error) error {
	if err == nil {
		return nil
	}
	if isContextErr(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", unavailable, provider, err)
}

// FromGoogle converts a googleapi.Error into the matching domain error.
func FromGoogle(err error, unavailable error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return FromStatus("gemini", gerr.Code, []byte(gerr.Message), unavailable)
	}
	return Transport("gemini", err, unavailable)
}

// FromOllama converts an ollama client error into the matching domain error.
func FromOllama(err error, unavailable error) error {
	if err == nil {
		return nil
	}
	var serr api.StatusError
	if errors.As(err, &serr) {
		return FromStatus("ollama", serr.StatusCode, []byte(serr.ErrorMessage), unavailable)
	}
	return Transport("ollama", err, unavailable)
}

// IsRateLimited reports whether err is a provider rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
