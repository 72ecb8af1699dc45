// Package slug arbitrates tenant-unique, human-readable template
// identifiers.
package slug

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Checker reports whether a slug is already taken within a tenant. The
// template repository satisfies this.
type Checker interface {
	SlugTaken(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error)
}

// EnsureUnique resolves candidate to a slug that was free at check time:
// the candidate itself, then candidate-<millis>, then
// candidate-<millis>-<token> (the last form is returned without a further
// existence check).
//
// The checks are read-then-decide, so two concurrent callers can both see
// a slug as free. The result is therefore a hint, not a guarantee: the
// repository's unique index on (tenant_id, slug) is the backstop, and
// callers must treat an insert conflict as retryable with a fresh
// arbitration pass.
func EnsureUnique(ctx context.Context, store Checker, tenantID uuid.UUID, candidate string) (string, error) {
	taken, err := store.SlugTaken(ctx, tenantID, candidate)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}

	withMillis := fmt.Sprintf("%s-%d", candidate, time.Now().UnixMilli())
	taken, err = store.SlugTaken(ctx, tenantID, withMillis)
	if err != nil {
		return "", fmt.Errorf("check slug %q: %w", withMillis, err)
	}
	if !taken {
		return withMillis, nil
	}

	// Double collision. Tack on random entropy and stop checking; the
	// insert's unique constraint catches the astronomically unlikely rest.
	return withMillis + "-" + shortToken(), nil
}

// shortToken returns 8 hex characters of fresh randomness.
func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Make derives a slug candidate from a free-form title: lower-cased,
// non-alphanumeric runs collapsed to single dashes. An empty result
// (e.g. a punctuation-only title) falls back to "template".
func Make(title string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "template"
	}
	return out
}
