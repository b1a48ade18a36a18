package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"driftapp.dev/drift/internal/model"
	"driftapp.dev/drift/internal/store"
)

// DeliveryStatsService derives weekly delivery aggregates from ticket
// snapshots, including a week-over-week velocity comparison.
type DeliveryStatsService interface {
	WeekStats(ctx context.Context, projectID int64, weekStart time.Time) (model.DeliveryStats, error)
}

type deliveryStatsService struct {
	snapshots store.SnapshotStore
}

func NewDeliveryStatsService(snapshots store.SnapshotStore) DeliveryStatsService {
	return &deliveryStatsService{snapshots: snapshots}
}

func (s *deliveryStatsService) WeekStats(ctx context.Context, projectID int64, weekStart time.Time) (model.DeliveryStats, error) {
	current, err := s.snapshots.ListByProjectAndWeek(ctx, projectID, weekStart)
	if err != nil {
		return model.DeliveryStats{}, fmt.Errorf("listing current week snapshots: %w", err)
	}
	previous, err := s.snapshots.ListByProjectAndWeek(ctx, projectID, PrevWeekStart(weekStart))
	if err != nil {
		return model.DeliveryStats{}, fmt.Errorf("listing previous week snapshots: %w", err)
	}
	return BuildDeliveryStats(current, previous), nil
}

// BuildDeliveryStats is the pure aggregation over two weeks of snapshots.
func BuildDeliveryStats(current, previous []model.TicketSnapshot) model.DeliveryStats {
	cur := dedupeLatest(current)
	prev := dedupeLatest(previous)

	stats := classify(cur)
	prevStats := classify(prev)

	velocity := Velocity(stats.Merged, prevStats.Merged)
	stats.Velocity = velocity
	stats.VelocityLabel = velocity + " vs last week"
	return stats
}

// dedupeLatest keeps one snapshot per issue, the one with the latest
// SnapshotDate. Snapshotting captures history on purpose; counting must not.
func dedupeLatest(snapshots []model.TicketSnapshot) []model.TicketSnapshot {
	latest := make(map[string]model.TicketSnapshot, len(snapshots))
	for _, snap := range snapshots {
		existing, ok := latest[snap.LinearIssueID]
		if !ok || snap.SnapshotDate.After(existing.SnapshotDate) {
			latest[snap.LinearIssueID] = snap
		}
	}
	out := make([]model.TicketSnapshot, 0, len(latest))
	for _, snap := range latest {
		out = append(out, snap)
	}
	return out
}

func classify(snapshots []model.TicketSnapshot) model.DeliveryStats {
	var stats model.DeliveryStats
	stats.Created = len(snapshots)
	for _, snap := range snapshots {
		if snap.StateType == "completed" {
			stats.Merged++
		}
		if strings.Contains(strings.ToLower(snap.StateName), "review") {
			stats.InReview++
		}
		if isBlocked(snap) {
			stats.Blocked++
		}
	}
	return stats
}

func isBlocked(snap model.TicketSnapshot) bool {
	if snap.Priority == 1 {
		return true
	}
	for _, label := range snap.LabelNames {
		if strings.EqualFold(label, "blocked") {
			return true
		}
	}
	return false
}

// Velocity renders the merged-count change as a sign-prefixed percentage.
// Both weeks zero reads as "+0%", a zero baseline as "+100%".
func Velocity(current, previous int) string {
	if previous == 0 {
		if current == 0 {
			return "+0%"
		}
		return "+100%"
	}
	pct := int(math.Round(float64(current-previous) / float64(previous) * 100))
	return fmt.Sprintf("%+d%%", pct)
}
