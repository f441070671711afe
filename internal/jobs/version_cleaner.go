package jobs

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/elcodo/burdy/internal/store"
)

// VersionCleaner thins out version rows. Within each rounding window only the
// newest version per post survives; older versions outside the lookback are
// left alone.
type VersionCleaner struct {
	store    store.Store
	lookback time.Duration
	window   time.Duration
}

func NewVersionCleaner(store store.Store) *VersionCleaner {
	return &VersionCleaner{
		store:    store,
		lookback: 2 * time.Hour,
		window:   10 * time.Minute,
	}
}

func (c *VersionCleaner) Schedule() string {
	return "@every 10m"
}

func (c *VersionCleaner) Run() {
	ctx := context.Background()
	now := time.Now()

	versions, err := c.store.ListVersionsCreatedBetween(ctx, now.Add(-c.lookback), now)
	if err != nil {
		logrus.Errorf("version cleaner: listing versions failed: %v", err)
		return
	}

	// rows come grouped by parent, newest first: the first row of each
	// (parent, window) pair is the keeper
	seen := mapset.NewSet[string]()
	remove := make([]uuid.UUID, 0)
	for _, version := range versions {
		if version.ParentID == nil {
			continue
		}
		key := *version.ParentID + "/" + version.CreatedAt.Round(c.window).Format(time.RFC3339)
		if seen.Contains(key) {
			id, err := uuid.Parse(version.ID)
			if err != nil {
				continue
			}
			remove = append(remove, id)
			continue
		}
		seen.Add(key)
	}

	if len(remove) == 0 {
		return
	}

	deleted, err := c.store.DeletePostVersions(ctx, remove)
	if err != nil {
		logrus.Errorf("version cleaner: deleting versions failed: %v", err)
		return
	}

	logrus.Infof("version cleaner: removed %d versions", deleted)
}
