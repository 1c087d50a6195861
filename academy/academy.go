// Package academy provides typed access to the academy REST resources: teams, players, users,
// attendance, trainings, insights and the role dashboards. Every call goes through the API
// gateway client, so tokens, refresh and retries are handled there.
package academy

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-academy-client/apiclient"
	"github.com/jrsteele09/go-academy-client/internal/validation"
)

// Client groups the resource services
type Client struct {
	Teams      *TeamsService
	Players    *PlayersService
	Users      *UsersService
	Attendance *AttendanceService
	Trainings  *TrainingsService
	Insights   *InsightsService
	Dashboards *DashboardsService
}

type service struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	s := service{api: api}
	return &Client{
		Teams:      &TeamsService{s},
		Players:    &PlayersService{s},
		Users:      &UsersService{s},
		Attendance: &AttendanceService{s},
		Trainings:  &TrainingsService{s},
		Insights:   &InsightsService{s},
		Dashboards: &DashboardsService{s},
	}
}

func (s service) get(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// send validates in before it goes out, so the backend never sees a payload that would come back
// as a 400 for a missing field.
func (s service) send(ctx context.Context, method, path string, in, out any) error {
	if in != nil {
		if err := validation.Struct(in); err != nil {
			return err
		}
	}
	return s.api.JSON(ctx, method, path, in, out)
}

func (s service) delete(ctx context.Context, path string) error {
	_, err := s.api.Do(ctx, &apiclient.Request{Method: http.MethodDelete, Path: path})
	return err
}

// resourcePath joins escaped segments, e.g. resourcePath("teams", id) -> "/teams/u%2F12"
func resourcePath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return "/" + strings.Join(escaped, "/")
}
