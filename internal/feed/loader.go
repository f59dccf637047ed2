package feed

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newUsernameLoader batches every username lookup made while serving one call into
// a single FindByIDs. Unknown users resolve to an empty name.
func newUsernameLoader(users UserFinder) *dataloader.Loader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))

		ids := make([]primitive.ObjectID, 0, len(keys))
		for _, k := range keys {
			if id, err := primitive.ObjectIDFromHex(k.String()); err == nil {
				ids = append(ids, id)
			}
		}

		found, err := users.FindByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, k := range keys {
			name := ""
			if id, err := primitive.ObjectIDFromHex(k.String()); err == nil {
				if u, ok := found[id]; ok {
					name = u.Username
				}
			}
			results[i] = &dataloader.Result{Data: name}
		}

		return results
	}

	return dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond))
}

// usernames resolves every id in one batch.
func usernames(ctx context.Context, loader *dataloader.Loader, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	keys := make(dataloader.Keys, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, dataloader.StringKey(id.Hex()))
	}

	names := make(map[primitive.ObjectID]string, len(keys))
	if len(keys) == 0 {
		return names, nil
	}

	data, errs := loader.LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for i, k := range keys {
		id, _ := primitive.ObjectIDFromHex(k.String())
		name, _ := data[i].(string)
		names[id] = name
	}

	return names, nil
}
