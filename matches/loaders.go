package matches

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"gitea.kood.tech/petrkubec/roomies/models"
)

type loadersKey struct{}

// Loaders holds the per-request dataloaders.
type Loaders struct {
	Profiles *dataloader.Loader[string, *models.Profile]
}

// NewLoaders creates fresh loaders. Build one set per request so cached
// profiles never outlive it.
func NewLoaders(repo ProfileRepository) *Loaders {
	return &Loaders{
		Profiles: dataloader.NewBatchedLoader(
			profileBatchFn(repo),
			dataloader.WithWait[string, *models.Profile](16*time.Millisecond),
		),
	}
}

// WithLoaders adds loaders to ctx.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey{}, l)
}

// LoadersFrom returns the loaders stored in ctx, or nil.
func LoadersFrom(ctx context.Context) *Loaders {
	if l, ok := ctx.Value(loadersKey{}).(*Loaders); ok {
		return l
	}
	return nil
}

// profileBatchFn loads a batch of profiles with a single GetProfiles call.
// Ids with no profile resolve to a nil result without an error.
func profileBatchFn(repo ProfileRepository) dataloader.BatchFunc[string, *models.Profile] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*models.Profile] {
		results := make([]*dataloader.Result[*models.Profile], len(keys))
		for i := range results {
			results[i] = &dataloader.Result[*models.Profile]{}
		}

		found, err := repo.GetProfiles(ctx, keys)
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}

		for i, key := range keys {
			results[i].Data = found[key]
		}
		return results
	}
}
