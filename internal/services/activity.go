package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"suarawarga/internal/logger"
	"suarawarga/internal/models"
	"suarawarga/internal/store"
	"suarawarga/internal/utils"
)

// ActivityRecorder 追加写入动态日志，记录一经写入不再修改
type ActivityRecorder struct {
	store store.Store
	now   func() time.Time
	log   *logger.Logger
}

func NewActivityRecorder(st store.Store, now func() time.Time, log *logger.Logger) *ActivityRecorder {
	return &ActivityRecorder{store: st, now: now, log: log.WithComponent("activity")}
}

// Record appends one activity for report. The title is copied so later
// edits to the report never rewrite history.
func (a *ActivityRecorder) Record(ctx context.Context, typ models.ActivityType, report *models.Report, wallet string) (*models.Activity, error) {
	activity := &models.Activity{
		ID:            utils.NewID(ActivityPrefix),
		Type:          typ,
		ReportID:      report.ID,
		ReportTitle:   report.Title,
		WalletAddress: wallet,
		CreatedAt:     a.now().UTC(),
	}

	data, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("encode activity: %w", err)
	}
	if _, err := a.store.CompareAndSwap(ctx, activity.ID, data, 0); err != nil {
		return nil, wrapStorage("record activity", err)
	}
	return activity, nil
}

// List returns all activities newest first. Equal timestamps put the later
// insert first.
func (a *ActivityRecorder) List(ctx context.Context) ([]*models.Activity, error) {
	entries, err := a.store.GetByPrefix(ctx, ActivityPrefix)
	if err != nil {
		return nil, wrapStorage("list activities", err)
	}

	activities := make([]*models.Activity, 0, len(entries))
	for _, e := range entries {
		var activity models.Activity
		if err := json.Unmarshal(e.Value, &activity); err != nil {
			a.log.Warn().Err(err).Str("key", e.Key).Msg("skipping undecodable activity")
			continue
		}
		activities = append(activities, &activity)
	}

	slices.SortFunc(activities, func(x, y *models.Activity) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(y.ID, x.ID)
	})
	return activities, nil
}
