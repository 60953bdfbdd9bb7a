// Package coord refreshes the corpus from the social network and feeds.
package coord

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/filippog/doaddoad/internal/corpus"
	"github.com/filippog/doaddoad/internal/fetch"
	"github.com/filippog/doaddoad/internal/logging"
	"github.com/filippog/doaddoad/internal/social"
)

// fetchTimeout is the timeout for each individual timeline or feed fetch.
const fetchTimeout = 30 * time.Second

// defaultConcurrency limits parallel fetch operations.
const defaultConcurrency = 5

// defaultTimelineCount is how many statuses are read per follower.
const defaultTimelineCount = 20

// fetcher interface for dependency injection (testing).
type fetcher interface {
	Fetch(ctx context.Context, src fetch.Source) ([]*corpus.Post, error)
}

// Config tunes a Coordinator. Zero values pick the defaults.
type Config struct {
	TimelineCount int
	Concurrency   int
	Sources       []fetch.Source
	Rand          *rand.Rand // follower shuffle; nil uses the global source
}

// Report summarises one Update run.
type Report struct {
	Followed  int // accounts followed back
	Timelines int // timelines fetched successfully
	Feeds     int // feeds fetched successfully
	Failed    int // timelines or feeds that failed
	Added     int // posts new to the corpus
}

// Coordinator fills the corpus. The store is only touched from the calling
// goroutine; fetches run in parallel and hand their posts back.
type Coordinator struct {
	store         *corpus.Store
	client        social.Client // nil when no account is configured
	fetcher       fetcher
	sources       []fetch.Source
	timelineCount int
	concurrency   int
	rng           *rand.Rand
	now           func() time.Time
}

// NewCoordinator creates a Coordinator with the real feed fetcher.
func NewCoordinator(s *corpus.Store, client social.Client, f *fetch.Fetcher, cfg Config) *Coordinator {
	if f == nil {
		return NewCoordinatorWithFetcher(s, client, nil, cfg)
	}
	return NewCoordinatorWithFetcher(s, client, f, cfg)
}

// NewCoordinatorWithFetcher allows injecting a custom fetcher (for testing).
func NewCoordinatorWithFetcher(s *corpus.Store, client social.Client, f fetcher, cfg Config) *Coordinator {
	c := &Coordinator{
		store:         s,
		client:        client,
		fetcher:       f,
		sources:       append([]fetch.Source(nil), cfg.Sources...),
		timelineCount: cfg.TimelineCount,
		concurrency:   cfg.Concurrency,
		rng:           cfg.Rand,
		now:           time.Now,
	}
	if c.timelineCount <= 0 {
		c.timelineCount = defaultTimelineCount
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	return c
}

// Due reports whether the corpus should be refreshed: it was never saved,
// or the last save is older than refresh.
func (c *Coordinator) Due(ctx context.Context, refresh time.Duration) (bool, error) {
	saved, err := c.store.SavedAt(ctx)
	if err != nil {
		return false, err
	}
	if saved.IsZero() {
		return true, nil
	}
	return c.now().Sub(saved) > refresh, nil
}

// Followback follows every follower the bot does not follow yet and returns
// how many were followed. A failure to follow one account is logged and
// does not stop the others.
func (c *Coordinator) Followback(ctx context.Context) (int, error) {
	if c.client == nil {
		return 0, nil
	}
	followers, err := c.client.GetFollowers(ctx)
	if err != nil {
		return 0, fmt.Errorf("get followers: %w", err)
	}
	return c.followback(ctx, followers)
}

func (c *Coordinator) followback(ctx context.Context, followers []social.Account) (int, error) {
	friends, err := c.client.GetFriends(ctx)
	if err != nil {
		return 0, fmt.Errorf("get friends: %w", err)
	}
	following := make(map[string]bool, len(friends))
	for _, f := range friends {
		following[f.ID] = true
	}

	log := logging.WithPrefix("coord")
	followed := 0
	for _, f := range followers {
		if following[f.ID] {
			continue
		}
		if ctx.Err() != nil {
			return followed, ctx.Err()
		}
		if err := c.client.CreateFriendship(ctx, f.ID); err != nil {
			log.Warn("Failed to follow back", "account", f.Acct, "err", err)
			continue
		}
		log.Info("Followed back", "account", f.Acct)
		followed++
	}
	return followed, nil
}

// job is one unit of parallel work: a follower timeline or a feed.
type job struct {
	name  string
	run   func(ctx context.Context) ([]*corpus.Post, error)
	posts []*corpus.Post
	err   error
	feed  bool
}

// Update follows back, then reads the timelines of (at most maxUpdates,
// when positive, randomly chosen) followers and every configured feed, and
// adds the posts it has not seen before to the store. Individual fetch
// failures are logged and counted; only failing to list followers, or a
// cancelled ctx, aborts the run. The store is not saved.
func (c *Coordinator) Update(ctx context.Context, maxUpdates int) (Report, error) {
	var report Report
	var jobs []*job

	if c.client != nil {
		followers, err := c.client.GetFollowers(ctx)
		if err != nil {
			return report, fmt.Errorf("get followers: %w", err)
		}

		followed, err := c.followback(ctx, followers)
		report.Followed = followed
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			logging.WithPrefix("coord").Warn("Followback failed", "err", err)
		}

		if maxUpdates > 0 {
			shuffle := rand.Shuffle
			if c.rng != nil {
				shuffle = c.rng.Shuffle
			}
			shuffle(len(followers), func(i, j int) {
				followers[i], followers[j] = followers[j], followers[i]
			})
			if len(followers) > maxUpdates {
				followers = followers[:maxUpdates]
			}
		}

		for _, f := range followers {
			jobs = append(jobs, &job{
				name: "@" + f.Acct,
				run:  func(ctx context.Context) ([]*corpus.Post, error) { return c.timeline(ctx, f.ID) },
			})
		}
	}

	if c.fetcher != nil {
		for _, src := range c.sources {
			jobs = append(jobs, &job{
				name: src.Name,
				feed: true,
				run:  func(ctx context.Context) ([]*corpus.Post, error) { return c.fetcher.Fetch(ctx, src) },
			})
		}
	}

	c.runAll(ctx, jobs)
	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	log := logging.WithPrefix("coord")
	for _, j := range jobs {
		switch {
		case errors.Is(j.err, social.ErrNotAuthorized):
			log.Info("Not authorized to read timeline", "source", j.name)
			report.Failed++
			continue
		case j.err != nil:
			log.Warn("Fetch failed", "source", j.name, "err", j.err)
			report.Failed++
			continue
		case j.feed:
			report.Feeds++
		default:
			report.Timelines++
		}

		added := 0
		for _, p := range j.posts {
			if c.store.Add(p) {
				added++
			}
		}
		log.Debug("Fetched", "source", j.name, "posts", len(j.posts), "new", added)
		report.Added += added
	}

	log.Info("Corpus updated", "followed", report.Followed, "timelines", report.Timelines,
		"feeds", report.Feeds, "failed", report.Failed, "added", report.Added, "size", c.store.Len())
	return report, nil
}

// runAll runs every job in parallel, at most concurrency at a time, each
// with its own timeout. Results are stored on the job.
func (c *Coordinator) runAll(ctx context.Context, jobs []*job) {
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, j := range jobs {
		g.Go(func() error {
			// Early exit if context cancelled
			if ctx.Err() != nil {
				j.err = ctx.Err()
				return nil
			}
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			j.posts, j.err = j.run(fetchCtx)
			return nil // never fail the group - errors reported per job
		})
	}

	_ = g.Wait()
}

func (c *Coordinator) timeline(ctx context.Context, userID string) ([]*corpus.Post, error) {
	statuses, err := c.client.GetUserTimeline(ctx, userID, c.timelineCount)
	if err != nil {
		return nil, err
	}
	now := c.now()
	posts := make([]*corpus.Post, 0, len(statuses))
	for _, st := range statuses {
		if st.Text == "" {
			continue
		}
		posts = append(posts, &corpus.Post{
			ID:       st.ID,
			Text:     st.Text,
			Author:   st.Author,
			Observed: now,
		})
	}
	return posts, nil
}
