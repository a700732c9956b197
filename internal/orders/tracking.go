package orders

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	TrackingCodeLength   = 12
	trackingCodeAttempts = 5
)

var trackingCodeRe = regexp.MustCompile(`^[0-9A-F]{12}$`)

// NewTrackingCode the first 48 random bits of a v4 UUID as uppercase hex
func NewTrackingCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:TrackingCodeLength])
}

// NormalizeTrackingCode uppercases and trims user input. ok is false when the result
// cannot be a tracking code.
func NormalizeTrackingCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, trackingCodeRe.MatchString(code)
}

func (s *Service) allocateTrackingCode(ctx context.Context, store OrderStore) (string, error) {
	for i := 0; i < trackingCodeAttempts; i++ {
		code := s.newCode()
		exists, err := store.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.WithStack(ErrTrackingCodeExhausted)
}
