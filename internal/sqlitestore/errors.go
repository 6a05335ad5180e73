package sqlitestore

import (
	"errors"
	"strings"

	"github.com/example/scheduling-platform/internal/apperr"
)

// Sentinel errors returned by repository code before translation into
// apperr at the service boundary. Generalized from the teacher's
// persistence.ErrNotFound plus the duplicate/constraint cases its
// mapRoomError handled inline per-repository.
var (
	ErrNotFound            = errors.New("sqlitestore: not found")
	ErrDuplicate           = errors.New("sqlitestore: duplicate")
	ErrConstraintViolation = errors.New("sqlitestore: constraint violation")
)

// MapError classifies a raw error returned by the modernc.org/sqlite driver,
// generalizing the teacher's ErrorMapper/mapRoomError string-sniffing into a
// single shared helper so every repository maps errors the same way.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "unique constraint"):
		return ErrDuplicate
	case containsAny(msg, "foreign key constraint", "check constraint", "not null constraint"):
		return ErrConstraintViolation
	case containsAny(msg, "no rows"):
		return ErrNotFound
	default:
		return err
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ToAppError converts a sentinel returned by MapError into the shared
// apperr taxonomy, for use at service/application boundaries that need to
// surface a Kind rather than a raw sqlitestore error.
func ToAppError(err error, resource string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(resource)
	case errors.Is(err, ErrDuplicate):
		return apperr.New(apperr.KindConflict, resource+" already exists")
	case errors.Is(err, ErrConstraintViolation):
		return apperr.New(apperr.KindValidation, resource+" violates a constraint")
	case err == nil:
		return nil
	default:
		return apperr.Wrap(apperr.KindInternal, "unexpected "+resource+" storage error", err)
	}
}
