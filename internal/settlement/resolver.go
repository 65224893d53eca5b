// Package settlement resolves settlement names to the codes the election
// portlets key their map data on.
package settlement

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/votemap/precinct-cli/pkg/valasztas"
)

// ResolutionError means a settlement name could not be mapped to a code.
// Downstream stages treat it as fatal: a station whose settlement cannot be
// addressed cannot be looked up at all, unlike a station whose boundary
// fetch merely failed.
type ResolutionError struct {
	Settlement string
	Err        error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("settlement: resolve %q: %v", e.Settlement, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolver maps settlement names to settlement codes via the search portlet,
// memoizing results in a per-run cache.
type Resolver struct {
	client valasztas.Client
	cache  *Cache
}

// NewResolver creates a resolver backed by the given portlet client and cache.
func NewResolver(client valasztas.Client, cache *Cache) *Resolver {
	return &Resolver{client: client, cache: cache}
}

// Resolve returns the settlement code for a name. A cache hit answers without
// a remote call. On a miss it searches the portlet with the name as keyword
// and picks the first candidate matching the name; nothing is cached on
// failure, so a later attempt searches again.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	if code, ok := r.cache.Get(name); ok {
		zap.L().Debug("settlement code cache hit",
			zap.String("settlement", name),
			zap.String("code", code),
		)
		return code, nil
	}

	candidates, err := r.client.SearchSettlements(ctx, name)
	if err != nil {
		return "", &ResolutionError{Settlement: name, Err: err}
	}

	for _, candidate := range candidates {
		if matchesName(candidate.Name, name) {
			r.cache.Put(name, candidate.Code)
			zap.L().Debug("settlement code resolved",
				zap.String("settlement", name),
				zap.String("code", candidate.Code),
			)
			return candidate.Code, nil
		}
	}

	return "", &ResolutionError{
		Settlement: name,
		Err:        eris.Errorf("no match for keyword %q among %d search results", name, len(candidates)),
	}
}

// matchesName reports whether a search candidate names the wanted settlement.
// The search is a substring match on the portlet side, so the candidate list
// carries near-misses; a candidate counts only when it equals the name
// exactly or extends it with a space-separated qualifier ("Szeged" accepts
// "Szeged" and "Szeged I.", not "Szegedinum" or "Nagy Szeged").
func matchesName(candidate, name string) bool {
	if candidate == name {
		return true
	}
	return strings.HasPrefix(candidate, name+" ") && len(candidate) > len(name)+1
}
