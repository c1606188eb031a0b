package threadlist

import (
	"context"
	"errors"

	"github.com/colonyops/revthreads/internal/core/thread"
)

// ResolveFilters layers toggles: explicit overrides win, then the toggles
// saved for the change, then defaults. A nil store skips the saved layer.
func ResolveFilters(ctx context.Context, store FilterStore, change string, overrides, defaults thread.Filters) (thread.Filters, error) {
	f := overrides
	if store != nil && change != "" {
		saved, err := store.GetFilters(ctx, change)
		switch {
		case errors.Is(err, ErrNoFilters):
		case err != nil:
			return thread.Filters{}, err
		default:
			f = f.Merge(saved)
		}
	}
	return f.Merge(defaults), nil
}
