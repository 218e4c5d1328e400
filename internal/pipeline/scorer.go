package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
)

// AnomalyScorer implements Scorer using the domain aggregation, baseline and scoring functions.
type AnomalyScorer struct {
	logger *slog.Logger
}

// NewScorer creates an AnomalyScorer.
func NewScorer(logger *slog.Logger) *AnomalyScorer {
	return &AnomalyScorer{logger: logger}
}

func (s *AnomalyScorer) Score(obs []domain.Observation, params domain.Params) (domain.Result, error) {
	result, err := domain.ComputeAnomalies(obs, params)
	if err != nil {
		return domain.Result{}, err
	}
	if result.Dropped > 0 {
		s.logger.Debug("rows without a baseline group dropped",
			"dropped", result.Dropped,
			"baseline", result.Params.Baseline.String(),
		)
	}
	return result, nil
}
