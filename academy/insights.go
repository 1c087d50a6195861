package academy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

// Insight is one precomputed observation, e.g. a player whose attendance dropped
type Insight struct {
	Title    string   `json:"title"`
	Detail   string   `json:"detail,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	PlayerID string   `json:"playerId,omitempty"`
	TeamID   string   `json:"teamId,omitempty"`
}

// Insights is the analytics payload computed by the backend. Fields the client does not model
// are kept in Raw.
type Insights struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Summary     string             `json:"summary,omitempty"`
	Highlights  []Insight          `json:"highlights,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Raw         json.RawMessage    `json:"-"`
}

type InsightsService struct {
	service
}

func (s *InsightsService) Dashboard(ctx context.Context) (*Insights, error) {
	var raw json.RawMessage
	if err := s.get(ctx, "/ai/insights", nil, &raw); err != nil {
		return nil, err
	}
	var in Insights
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, errors.Wrap(err, "decode insights")
		}
	}
	in.Raw = raw
	return &in, nil
}
