package academy

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

type Position string

const (
	PositionGoalkeeper Position = "goalkeeper"
	PositionDefender   Position = "defender"
	PositionMidfielder Position = "midfielder"
	PositionForward    Position = "forward"
)

var Positions = []Position{PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward}

func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Positions, p) {
		return "", fmt.Errorf("unknown position %q", s)
	}
	return p, nil
}

type Player struct {
	ID           string   `json:"id"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	TeamID       string   `json:"teamId,omitempty"`
	Position     Position `json:"position,omitempty"`
	JerseyNumber int      `json:"jerseyNumber,omitempty"`
	DateOfBirth  Date     `json:"dateOfBirth"`
	ParentIDs    []string `json:"parentIds,omitempty"`
}

func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PlayerInput is the payload for creating or updating a player
type PlayerInput struct {
	FirstName    string   `json:"firstName" validate:"required,notblank"`
	LastName     string   `json:"lastName" validate:"required,notblank"`
	TeamID       string   `json:"teamId" validate:"required"`
	Position     Position `json:"position,omitempty" validate:"omitempty,oneof=goalkeeper defender midfielder forward"`
	JerseyNumber int      `json:"jerseyNumber,omitempty" validate:"omitempty,min=1,max=99"`
	DateOfBirth  Date     `json:"dateOfBirth" validate:"required"`
	ParentIDs    []string `json:"parentIds,omitempty"`
}

type PlayersService struct {
	service
}

// List returns all players, or the players of one team when teamID is set
func (s *PlayersService) List(ctx context.Context, teamID string) ([]Player, error) {
	var query url.Values
	if teamID != "" {
		query = url.Values{"teamId": {teamID}}
	}
	var players []Player
	if err := s.get(ctx, "/players", query, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (s *PlayersService) Get(ctx context.Context, id string) (*Player, error) {
	var p Player
	if err := s.get(ctx, resourcePath("players", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayersService) Create(ctx context.Context, in PlayerInput) (*Player, error) {
	var p Player
	if err := s.send(ctx, http.MethodPost, "/players", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayersService) Update(ctx context.Context, id string, in PlayerInput) (*Player, error) {
	var p Player
	if err := s.send(ctx, http.MethodPut, resourcePath("players", id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayersService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, resourcePath("players", id))
}

// PlayerFilter narrows a player list. Empty fields match everything.
type PlayerFilter struct {
	Name     string // case-insensitive substring of the full name
	Position Position
	TeamID   string
}

// FilterPlayers returns the players matching f, in their original order
func FilterPlayers(players []Player, f PlayerFilter) []Player {
	name := strings.ToLower(strings.TrimSpace(f.Name))
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if name != "" && !strings.Contains(strings.ToLower(p.FullName()), name) {
			continue
		}
		if f.Position != "" && p.Position != f.Position {
			continue
		}
		if f.TeamID != "" && p.TeamID != f.TeamID {
			continue
		}
		out = append(out, p)
	}
	return out
}

type SortField string

const (
	SortByName   SortField = "name"
	SortByJersey SortField = "jersey"
	SortByDOB    SortField = "dob"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByName, SortByJersey, SortByDOB:
		return f, nil
	case "":
		return SortByName, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// SortPlayers sorts in place, stable, ascending unless desc. Players without a jersey number or
// date of birth go last either way.
func SortPlayers(players []Player, by SortField, desc bool) {
	direction := 1
	if desc {
		direction = -1
	}

	slices.SortStableFunc(players, func(a, b Player) int {
		switch by {
		case SortByJersey:
			if c := missingLast(a.JerseyNumber == 0, b.JerseyNumber == 0); c != 0 {
				return c
			}
			return direction * cmp.Compare(a.JerseyNumber, b.JerseyNumber)
		case SortByDOB:
			if c := missingLast(a.DateOfBirth.IsZero(), b.DateOfBirth.IsZero()); c != 0 {
				return c
			}
			return direction * a.DateOfBirth.Compare(b.DateOfBirth.Time)
		default:
			return direction * cmp.Or(
				strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)),
				strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)),
			)
		}
	})
}

func missingLast(aMissing, bMissing bool) int {
	switch {
	case aMissing == bMissing:
		return 0
	case aMissing:
		return 1
	default:
		return -1
	}
}
