// Package dashboard serves the landing screen: headline counts and the
// number of articles published per day.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// ChartDays is the length of the articles-per-day series.
const ChartDays = 14

const countsFailed = "Failed to load counts"

// Articles is what the dashboard reads from the news collection.
type Articles interface {
	Count(ctx context.Context, preds ...domain.Predicate) (int64, error)
	List(ctx context.Context, opts domain.QueryOptions, columns ...string) ([]domain.Article, error)
}

// Counter counts records.
type Counter interface {
	Count(ctx context.Context, preds ...domain.Predicate) (int64, error)
}

// Counts are the headline numbers of the dashboard.
type Counts struct {
	TotalArticles int64 `json:"total_articles"`
	Published     int64 `json:"published"`
	TotalUsers    int64 `json:"total_users"`
}

// Day is one point of the articles-per-day series.
type Day struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	// Percent is Count relative to the busiest day of the series.
	Percent int `json:"percent"`
}

// Stats is everything the dashboard shows besides the article list.
type Stats struct {
	Counts Counts `json:"counts"`
	Days   []Day  `json:"days"`
}

// Service computes dashboard statistics.
type Service struct {
	articles Articles
	profiles Counter
	now      func() time.Time
}

// NewService creates a Service counting articles and profiles.
func NewService(articles Articles, profiles Counter) *Service {
	if articles == nil || profiles == nil {
		panic("dashboard.NewService: collections must not be nil")
	}
	return &Service{articles: articles, profiles: profiles, now: time.Now}
}

// Stats loads the counts and the per-day series concurrently.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	var st Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.Counts(ctx, now)
		st.Counts = c
		return err
	})
	g.Go(func() error {
		days, err := s.PerDay(ctx, now)
		st.Days = days
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Counts returns the total and published articles and the number of users.
// An article counts as published once its published_at is not after now.
func (s *Service) Counts(ctx context.Context, now time.Time) (Counts, error) {
	var c Counts
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.TotalArticles, err = s.articles.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		c.Published, err = s.articles.Count(ctx, domain.LTE("published_at", now))
		return err
	})
	g.Go(func() (err error) {
		c.TotalUsers, err = s.profiles.Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Counts{}, domain.NewAppError(domain.CodeInternal, countsFailed, err)
	}
	return c, nil
}

// PerDay returns the number of articles published on each of the last
// ChartDays UTC days, oldest first, today included. Days without articles
// are present with a zero count.
func (s *Service) PerDay(ctx context.Context, now time.Time) ([]Day, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(ChartDays - 1))
	records, err := s.articles.List(ctx, domain.QueryOptions{
		Where:     []domain.Predicate{domain.GTE("published_at", first), domain.LTE("published_at", now)},
		OrderBy:   "published_at",
		Ascending: true,
	}, "id", "published_at")
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "Failed to load chart", err)
	}

	days := make([]Day, ChartDays)
	index := make(map[string]int, ChartDays)
	for i := range days {
		d := first.AddDate(0, 0, i).Format(time.DateOnly)
		days[i].Date = d
		index[d] = i
	}
	busiest := 0
	for _, a := range records {
		i, ok := index[a.PublishedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		days[i].Count++
		busiest = max(busiest, days[i].Count)
	}
	if busiest > 0 {
		for i := range days {
			days[i].Percent = days[i].Count * 100 / busiest
		}
	}
	return days, nil
}
