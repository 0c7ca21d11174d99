package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/vasylcode/matchwatch/internal/model"
	"github.com/vasylcode/matchwatch/internal/remote"
	"golang.org/x/sync/errgroup"
)

// Progress receives load progress as a percentage and a short label
type Progress func(percent int, label string)

// LoadAll loads approved leagues once, then matches, watchlist and
// recommendations concurrently. A failed section is emptied and reported
// without affecting the others. The returned error joins every section
// failure.
func (c *Coordinator) LoadAll(ctx context.Context, progress Progress) error {
	if progress == nil {
		progress = func(int, string) {}
	}

	progress(10, "Loading leagues")
	c.LoadLeagues(ctx)
	progress(25, "Leagues loaded")

	var g errgroup.Group
	g.Go(func() error { _ = c.ReloadMatches(ctx); return nil })
	g.Go(func() error { _ = c.ReloadWatchlist(ctx); return nil })
	g.Go(func() error { _ = c.ReloadRecommendations(ctx); return nil })
	progress(60, "Loading matches, watchlist and recommendations")
	_ = g.Wait()
	progress(80, "Data loaded")

	c.renderer.RenderDashboard()
	progress(95, "Dashboard ready")

	var errs []error
	for _, r := range []remote.Resource{remote.ApprovedLeagues, remote.Matches, remote.Watchlist, remote.Recommendations} {
		if err := c.sess.SectionErr(r); err != nil {
			errs = append(errs, err)
		}
	}
	progress(100, "Done")
	return errors.Join(errs...)
}

// LoadLeagues fetches the approved leagues on the first call of the
// session. A failure leaves an empty directory and is not retried.
func (c *Coordinator) LoadLeagues(ctx context.Context) {
	c.sess.leaguesOnce.Do(func() {
		var rows []model.ApprovedLeague
		err := c.store.FetchAll(ctx, remote.ApprovedLeagues, &rows)
		if err != nil {
			c.logger.Warn("failed to load approved leagues", "error", err)
			c.sess.setLeagues(NewLeagueDirectory(nil), err)
			return
		}
		c.logger.Info("approved leagues loaded", "count", len(rows))
		c.sess.setLeagues(NewLeagueDirectory(rows), nil)
	})
}

// ReloadMatches replaces the match list with the server's
func (c *Coordinator) ReloadMatches(ctx context.Context) error {
	var rows []model.Match
	err := c.store.FetchAll(ctx, remote.Matches, &rows)
	if err != nil {
		rows = nil
		c.readFailed(remote.Matches, "matches", err)
	}
	c.sess.setMatches(rows, err)
	c.renderer.RenderMatches()
	return err
}

// ReloadWatchlist replaces the watchlist with the server's. Optimistic
// entries still in flight are kept when the server does not list them yet.
func (c *Coordinator) ReloadWatchlist(ctx context.Context) error {
	var rows []model.WatchlistItem
	err := c.store.FetchAll(ctx, remote.Watchlist, &rows)
	if err != nil {
		rows = nil
		c.readFailed(remote.Watchlist, "watchlist", err)
	}
	for i := range rows {
		if rows[i].Status == "" {
			rows[i].Status = model.WatchActive
		}
	}
	c.sess.setWatchlist(rows, err)
	c.renderer.RenderWatchlist()
	return err
}

// ReloadRecommendations replaces the recommendation list with the server's
func (c *Coordinator) ReloadRecommendations(ctx context.Context) error {
	var rows []model.Recommendation
	err := c.store.FetchAll(ctx, remote.Recommendations, &rows)
	if err != nil {
		rows = nil
		c.readFailed(remote.Recommendations, "recommendations", err)
	}
	c.sess.setRecommendations(rows, err)
	c.renderer.RenderRecommendations()
	return err
}

func (c *Coordinator) readFailed(resource remote.Resource, name string, err error) {
	c.logger.Error("load failed", "resource", resource, "error", err)
	c.notifier.Notify(fmt.Sprintf("Failed to load %s: %s", name, remote.Describe(err)), Error)
}
