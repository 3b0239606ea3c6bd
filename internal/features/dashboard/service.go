package dashboard

import (
	"context"
	"encoding/json"

	"padtracker-console/internal/common/models"
	"padtracker-console/internal/features/chart"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"go.uber.org/zap"
)

const sliceDashboard = "dashboard"

type DashboardService interface {
	Fetch(ctx context.Context, ws *store.Workspace) (store.State[Stats], error)
	Screen(state store.State[Stats]) Screen
}

type DashboardServiceImpl struct {
	Client *upstream.Client
	Logger *zap.Logger
}

func NewDashboardService(client *upstream.Client, logger *zap.Logger) DashboardService {
	return &DashboardServiceImpl{Client: client, Logger: logger.Named("dashboard")}
}

func (s *DashboardServiceImpl) Fetch(ctx context.Context, ws *store.Workspace) (store.State[Stats], error) {
	return store.Run(ctx, store.SliceOf[Stats](ws, sliceDashboard), "Failed to fetch dashboard stats", func(ctx context.Context) (Stats, error) {
		var raw json.RawMessage
		if err := s.Client.Get(ctx, upstream.PathDashboardStats, nil, &raw); err != nil {
			return Stats{}, err
		}
		return decodeStats(raw)
	})
}

// decodeStats accepts the stats either bare or wrapped in {data: ...}.
func decodeStats(raw json.RawMessage) (Stats, error) {
	var env models.Envelope[*Stats]
	if err := json.Unmarshal(raw, &env); err == nil && env.Data != nil {
		return *env.Data, nil
	}
	var stats Stats
	if len(raw) == 0 {
		return stats, nil
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *DashboardServiceImpl) Screen(state store.State[Stats]) Screen {
	return Screen{
		Cards:   chart.Cards(state.Data.Cards),
		Widgets: Layout(state.Data.Charts),
	}
}
