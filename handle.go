package accounts

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
)

// HandleProber is the lookup surface handle generation needs.
type HandleProber interface {
	HandleExists(ctx context.Context, handle string) (bool, error)
}

// HandleGenerator produces unique login handles by probing for collisions
// and appending a numeric suffix. The probe does not close the window to a
// concurrent insert; callers retry on a unique violation.
type HandleGenerator struct {
	store       HandleProber
	maxAttempts int
}

// NewHandleGenerator creates a generator over the given prober.
func NewHandleGenerator(store HandleProber) *HandleGenerator {
	return &HandleGenerator{
		store:       store,
		maxAttempts: 10,
	}
}

// Generate returns a handle derived from base, suffixed if taken.
func (g *HandleGenerator) Generate(ctx context.Context, base string) (string, error) {
	candidate := normalizeHandle(base)

	taken, err := g.store.HandleExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	for i := 0; i < g.maxAttempts; i++ {
		suffixed := candidate + strconv.Itoa(rand.IntN(9000)+1000)
		taken, err := g.store.HandleExists(ctx, suffixed)
		if err != nil {
			return "", err
		}
		if !taken {
			return suffixed, nil
		}
	}

	return "", errors.New("could not allocate a unique login handle", errors.CategoryConflict).
		WithCode(errors.CodeConflict)
}

// HandleFromEmail derives a handle candidate from an email's local part.
func HandleFromEmail(email string) string {
	if strings.Contains(email, "@") {
		return strings.Split(email, "@")[0]
	}
	return email
}

func normalizeHandle(base string) string {
	candidate := strings.TrimSpace(base)
	if candidate == "" {
		return "user"
	}
	return candidate
}
