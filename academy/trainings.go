package academy

import (
	"context"
	"net/url"
	"slices"
	"time"
)

type Training struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"teamId"`
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

// Day is one cell of the month grid
type Day struct {
	Date      Date
	InMonth   bool // false for the leading and trailing days of neighbouring months
	Trainings []Training
}

// MonthCalendar is a month laid out in weeks of seven days, Monday first
type MonthCalendar struct {
	Year  int
	Month time.Month
	Weeks [][7]Day
}

// Day returns the cell for d, or nil when d is not on the grid
func (mc *MonthCalendar) Day(d Date) *Day {
	for w := range mc.Weeks {
		for i := range mc.Weeks[w] {
			if mc.Weeks[w][i].Date.Equal(d.Time) {
				return &mc.Weeks[w][i]
			}
		}
	}
	return nil
}

type TrainingsService struct {
	service
}

// List returns the trainings starting within [from, to], both inclusive days. teamID is optional.
func (s *TrainingsService) List(ctx context.Context, from, to Date, teamID string) ([]Training, error) {
	query := url.Values{
		"from": {from.String()},
		"to":   {to.String()},
	}
	if teamID != "" {
		query.Set("teamId", teamID)
	}
	var trainings []Training
	if err := s.get(ctx, "/trainings", query, &trainings); err != nil {
		return nil, err
	}
	return trainings, nil
}

// Calendar fetches the trainings of the month containing month and lays them out on the grid.
// Training days are taken in month's location.
func (s *TrainingsService) Calendar(ctx context.Context, month time.Time, teamID string) (*MonthCalendar, error) {
	first, last := monthBounds(month)
	trainings, err := s.List(ctx, first, last, teamID)
	if err != nil {
		return nil, err
	}
	return BuildCalendar(month, trainings), nil
}

// BuildCalendar lays trainings out on the month grid of month. Trainings outside the grid are
// dropped; trainings on a day are ordered by start time.
func BuildCalendar(month time.Time, trainings []Training) *MonthCalendar {
	loc := month.Location()
	first, last := monthBounds(month)

	start := Date{first.AddDate(0, 0, -mondayOffset(first.Weekday()))}
	end := Date{last.AddDate(0, 0, 6-mondayOffset(last.Weekday()))}

	byDay := make(map[string][]Training)
	for _, t := range trainings {
		d := DateOf(t.StartsAt.In(loc)).String()
		byDay[d] = append(byDay[d], t)
	}

	mc := &MonthCalendar{Year: first.Year(), Month: first.Month()}
	for day := start; !day.After(end.Time); {
		var week [7]Day
		for i := range week {
			dayTrainings := byDay[day.String()]
			slices.SortStableFunc(dayTrainings, func(a, b Training) int {
				return a.StartsAt.Compare(b.StartsAt)
			})
			week[i] = Day{
				Date:      day,
				InMonth:   day.Month() == first.Month(),
				Trainings: dayTrainings,
			}
			day = Date{day.AddDate(0, 0, 1)}
		}
		mc.Weeks = append(mc.Weeks, week)
	}
	return mc
}

func monthBounds(month time.Time) (Date, Date) {
	first := NewDate(month.Year(), month.Month(), 1)
	last := Date{first.AddDate(0, 1, -1)}
	return first, last
}

// mondayOffset is the number of days since the last Monday
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
