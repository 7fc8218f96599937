package errors

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/tyniaiworkspace-dev/poe2-mcp/core/passivetree"
	"github.com/tyniaiworkspace-dev/poe2-mcp/core/timeless"
)

// ErrSeedOutOfRange is raised by callers that enforce the in-game seed range.
var ErrSeedOutOfRange = errors.New("seed out of range")

var transientMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
}

// Classify assigns a tier to an untiered error from the domain packages.
func Classify(err error) ErrorTier {
	switch {
	case err == nil:
		return TierPermanent
	case errors.Is(err, timeless.ErrUnknownTribute),
		errors.Is(err, passivetree.ErrSocketNotFound),
		errors.Is(err, ErrSeedOutOfRange),
		errors.Is(err, fs.ErrNotExist):
		return TierUserFixable
	case errors.Is(err, timeless.ErrInvalidWeights),
		errors.Is(err, passivetree.ErrInvalidNodeID),
		errors.Is(err, passivetree.ErrDuplicateNode):
		return TierPermanent
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return TierTransient
		}
	}
	return TierPermanent
}

// Hint returns a short remedy for user-fixable errors, or "".
func Hint(err error) string {
	var ute *timeless.UnknownTributeError
	switch {
	case errors.As(err, &ute):
		if ute.Suggestion != "" {
			return "use --tribute " + ute.Suggestion
		}
		return "valid tributes: Amanamu, Ulaman, Kurgal, Tacati, Doryani"
	case errors.Is(err, passivetree.ErrSocketNotFound):
		return "list sockets with: poe2 sockets"
	case errors.Is(err, fs.ErrNotExist):
		return "set data.tree_path and data.weights_path in config or pass --tree/--weights"
	case errors.Is(err, ErrSeedOutOfRange):
		return "seeds range from 79 to 30977; pass --any-seed to skip the check"
	}
	return ""
}
