package links

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type KPIs struct {
	TotalLinks   int64 `json:"totalLinks"`
	TotalClicks  int64 `json:"totalClicks"`
	ClicksLast7d int64 `json:"clicksLast7d"`
}

type LinkSummary struct {
	ID         uint       `json:"id"`
	Code       string     `json:"code"`
	TargetURL  string     `json:"targetUrl"`
	ShortURL   string     `json:"shortUrl"`
	IsActive   bool       `json:"isActive"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	ClickCount int64      `json:"clickCount"`
}

type Dashboard struct {
	KPIs  KPIs          `json:"kpis"`
	Links []LinkSummary `json:"links"`
}

// Dashboard lists the owner's links newest first together with the headline
// numbers. shortURL renders the public URL of a code.
func (s *Service) Dashboard(ctx context.Context, ownerID uint, shortURL func(code string) string) (*Dashboard, error) {
	out := &Dashboard{Links: []LinkSummary{}}
	since := s.now().UTC().AddDate(0, 0, -7)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repos.Click.CountByOwner(gctx, ownerID, nil)
		out.KPIs.TotalClicks = n
		return err
	})
	g.Go(func() error {
		n, err := s.repos.Click.CountByOwner(gctx, ownerID, &since)
		out.KPIs.ClicksLast7d = n
		return err
	})

	links, err := s.repos.Link.ListByOwner(ctx, ownerID)
	if err != nil {
		_ = g.Wait()
		return nil, err
	}
	ids := make([]uint, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	counts, err := s.repos.Click.CountByLinkIDs(ctx, ids)
	if err != nil {
		_ = g.Wait()
		return nil, err
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.KPIs.TotalLinks = int64(len(links))
	for _, l := range links {
		out.Links = append(out.Links, LinkSummary{
			ID:         l.ID,
			Code:       l.Code,
			TargetURL:  l.TargetURL,
			ShortURL:   shortURL(l.Code),
			IsActive:   l.IsActive,
			ExpiresAt:  l.ExpiresAt,
			CreatedAt:  l.CreatedAt,
			ClickCount: counts[l.ID],
		})
	}
	return out, nil
}
