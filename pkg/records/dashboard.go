package records

import (
	"context"
	"net/http"

	"github.com/campusclinic/console/pkg/common/models"
	"github.com/campusclinic/console/pkg/query"
)

// Dashboard aggregates. KPIs revalidate on the short interval, the diagnosis
// and trend series on the list interval.

func (s *Service) KPIs(ctx context.Context) (models.KPIs, error) {
	res := s.cache.Fetch(ctx, keyDashboardKPIs, s.kpiRefresh, s.fetchKPIs)
	data, _ := res.Data.(models.KPIs)
	return data, res.Err
}

// WatchKPIs re-fetches the KPIs every refresh interval until ctx is
// cancelled, for a dashboard surface that stays open.
func (s *Service) WatchKPIs(ctx context.Context) <-chan query.Result {
	return s.cache.Poll(ctx, keyDashboardKPIs, s.kpiRefresh, s.fetchKPIs)
}

func (s *Service) fetchKPIs(ctx context.Context) (interface{}, error) {
	var out models.KPIs
	if err := s.api.JSON(ctx, http.MethodGet, "/api/dashboard/kpis", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) TopDiagnoses(ctx context.Context) ([]models.DiagnosisStat, error) {
	res := s.cache.Fetch(ctx, keyTopDiagnoses, s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out []models.DiagnosisStat
		if err := s.api.JSON(ctx, http.MethodGet, "/api/dashboard/top-diagnoses", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.([]models.DiagnosisStat)
	return data, res.Err
}

func (s *Service) VisitsTrend(ctx context.Context) ([]models.VisitTrendPoint, error) {
	res := s.cache.Fetch(ctx, keyVisitsTrend, s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out []models.VisitTrendPoint
		if err := s.api.JSON(ctx, http.MethodGet, "/api/dashboard/visits-trend", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.([]models.VisitTrendPoint)
	return data, res.Err
}
