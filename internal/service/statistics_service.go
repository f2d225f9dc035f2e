package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Ariet2003/cashier-service/internal/apperror"
	"github.com/Ariet2003/cashier-service/internal/entity"
)

type StatisticsStore interface {
	Summarize(ctx context.Context, from, to time.Time) (*entity.Statistics, error)
	CreatedTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
}

type StatisticsService struct {
	stats StatisticsStore
	now   func() time.Time
}

func NewStatisticsService(stats StatisticsStore) *StatisticsService {
	return &StatisticsService{stats: stats, now: time.Now}
}

func (s *StatisticsService) Get(ctx context.Context, period entity.Period) (*entity.Statistics, error) {
	now := s.now()
	from, to := periodBounds(period, now)

	stats, err := s.stats.Summarize(ctx, from, to)
	if err != nil {
		logger.Error().Err(err).Str("period", string(period)).Msg("Error summarizing orders")
		return nil, apperror.Storage(err)
	}
	times, err := s.stats.CreatedTimes(ctx, from, to)
	if err != nil {
		logger.Error().Err(err).Str("period", string(period)).Msg("Error listing order times")
		return nil, apperror.Storage(err)
	}

	stats.ChartData = chart(period, from, to, times)
	return stats, nil
}

// periodBounds: day is the calendar day, week runs Monday to Sunday, month is the calendar month.
func periodBounds(period entity.Period, now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)
	switch period {
	case entity.PeriodWeek:
		from := mondayOf(day)
		return from, from.AddDate(0, 0, 7).Add(-time.Nanosecond)
	case entity.PeriodMonth:
		from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	default:
		return dayBounds(now)
	}
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func chart(period entity.Period, from, to time.Time, times []time.Time) []entity.ChartPoint {
	loc := from.Location()
	switch period {
	case entity.PeriodWeek:
		points := make([]entity.ChartPoint, 7)
		index := make(map[string]int, 7)
		for i := range points {
			day := from.AddDate(0, 0, i)
			points[i].Label = day.Format("Mon")
			index[day.Format("2006-01-02")] = i
		}
		for _, t := range times {
			if i, ok := index[t.In(loc).Format("2006-01-02")]; ok {
				points[i].Value++
			}
		}
		return points

	case entity.PeriodMonth:
		var points []entity.ChartPoint
		var starts []time.Time
		for start := mondayOf(from); !start.After(to); start = start.AddDate(0, 0, 7) {
			starts = append(starts, start)
			points = append(points, entity.ChartPoint{Label: start.Format("2 Jan")})
		}
		for _, t := range times {
			t = t.In(loc)
			for i, start := range starts {
				end := to
				if i < len(starts)-1 {
					end = starts[i+1]
				}
				if !t.Before(start) && t.Before(end) {
					points[i].Value++
					break
				}
			}
		}
		return points

	default:
		points := make([]entity.ChartPoint, 24)
		for h := range points {
			points[h].Label = fmt.Sprintf("%d:00", h)
		}
		for _, t := range times {
			points[t.In(loc).Hour()].Value++
		}
		return points
	}
}
