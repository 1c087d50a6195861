package academy

import (
	"context"
	"net/http"
	"time"
)

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AgeGroup  string    `json:"ageGroup,omitempty"`
	CoachIDs  []string  `json:"coachIds,omitempty"`
	PlayerIDs []string  `json:"playerIds,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// TeamInput is the payload for creating or updating a team
type TeamInput struct {
	Name     string   `json:"name" validate:"required,notblank,max=80"`
	AgeGroup string   `json:"ageGroup" validate:"required,notblank"`
	CoachIDs []string `json:"coachIds,omitempty" validate:"omitempty,dive,required"`
}

type TeamsService struct {
	service
}

func (s *TeamsService) List(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := s.get(ctx, "/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *TeamsService) Get(ctx context.Context, id string) (*Team, error) {
	var team Team
	if err := s.get(ctx, resourcePath("teams", id), nil, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamsService) Create(ctx context.Context, in TeamInput) (*Team, error) {
	var team Team
	if err := s.send(ctx, http.MethodPost, "/teams", in, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamsService) Update(ctx context.Context, id string, in TeamInput) (*Team, error) {
	var team Team
	if err := s.send(ctx, http.MethodPut, resourcePath("teams", id), in, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamsService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, resourcePath("teams", id))
}
