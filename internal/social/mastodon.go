package social

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-mastodon"
	"golang.org/x/time/rate"

	"github.com/filippog/doaddoad/internal/htmltext"
	"github.com/filippog/doaddoad/internal/logging"
)

const (
	// Mastodon caps list endpoints at 80 accounts and 40 statuses per page.
	accountsPageSize = 80
	statusesPageSize = 40

	requestTimeout = 30 * time.Second
)

// Mastodon talks to a Mastodon-compatible server with a user access token.
type Mastodon struct {
	api *mastodon.Client
	rt  *transport

	mu   sync.Mutex
	self mastodon.ID
}

// MastodonOption configures a Mastodon client.
type MastodonOption func(*Mastodon)

// WithTransport replaces the HTTP transport requests are finally sent
// with. Rate limiting and retries still apply on top of it.
func WithTransport(rt http.RoundTripper) MastodonOption {
	return func(m *Mastodon) { m.rt.base = rt }
}

// WithRequestsPerSecond limits outgoing requests. Zero or less disables the
// limiter.
func WithRequestsPerSecond(rps float64) MastodonOption {
	return func(m *Mastodon) {
		if rps <= 0 {
			m.rt.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		m.rt.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRateLimitWait caps how long a single rate-limit wait may last.
func WithMaxRateLimitWait(d time.Duration) MastodonOption {
	return func(m *Mastodon) { m.rt.maxWait = d }
}

// NewMastodon returns a client for server (e.g. "https://mastodon.social").
func NewMastodon(server, token string, opts ...MastodonOption) *Mastodon {
	m := &Mastodon{
		api: mastodon.NewClient(&mastodon.Config{
			Server:      strings.TrimRight(server, "/"),
			AccessToken: token,
		}),
		rt: newTransport(),
	}
	for _, o := range opts {
		o(m)
	}
	m.api.Transport = m.rt
	m.api.Timeout = requestTimeout
	return m
}

// GetFollowers returns every account following the bot.
func (m *Mastodon) GetFollowers(ctx context.Context) ([]Account, error) {
	return m.accounts(ctx, m.api.GetAccountFollowers)
}

// GetFriends returns every account the bot follows.
func (m *Mastodon) GetFriends(ctx context.Context) ([]Account, error) {
	return m.accounts(ctx, m.api.GetAccountFollowing)
}

// CreateFriendship follows the account with the given id.
func (m *Mastodon) CreateFriendship(ctx context.Context, id string) error {
	if _, err := m.api.AccountFollow(ctx, mastodon.ID(id)); err != nil {
		return fmt.Errorf("follow %s: %w", id, err)
	}
	return nil
}

// GetUserTimeline returns up to count of the user's most recent statuses.
// Reblogs are rendered as "RT @acct text".
func (m *Mastodon) GetUserTimeline(ctx context.Context, userID string, count int) ([]Status, error) {
	if count <= 0 {
		return nil, nil
	}

	var out []Status
	var maxID mastodon.ID
	for len(out) < count {
		pg := &mastodon.Pagination{MaxID: maxID, Limit: int64(min(count-len(out), statusesPageSize))}
		page, err := m.api.GetAccountStatuses(ctx, mastodon.ID(userID), pg)
		if err != nil {
			return nil, fmt.Errorf("timeline %s: %w", userID, err)
		}
		for _, s := range page {
			st, ok := convertStatus(s)
			if !ok {
				logging.WithPrefix("social").Debug("Skipping status with non-numeric id", "id", s.ID)
				continue
			}
			out = append(out, st)
			if len(out) == count {
				break
			}
		}
		if len(page) == 0 || !advance(pg, &maxID) {
			break
		}
	}
	return out, nil
}

// PostUpdate publishes text as a new public status.
func (m *Mastodon) PostUpdate(ctx context.Context, text string) (Status, error) {
	s, err := m.api.PostStatus(ctx, &mastodon.Toot{Status: text})
	if err != nil {
		return Status{}, fmt.Errorf("post status: %w", err)
	}
	st, ok := convertStatus(s)
	if !ok {
		logging.WithPrefix("social").Warn("Posted status has a non-numeric id", "id", s.ID)
	}
	return st, nil
}

func (m *Mastodon) selfID(ctx context.Context) (mastodon.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.self != "" {
		return m.self, nil
	}

	acct, err := m.api.GetAccountCurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("verify credentials: %w", err)
	}
	if acct.ID == "" {
		return "", fmt.Errorf("verify credentials: no account id")
	}
	m.self = acct.ID
	return m.self, nil
}

type accountLister func(ctx context.Context, id mastodon.ID, pg *mastodon.Pagination) ([]*mastodon.Account, error)

// accounts walks every page of one of the bot's account lists.
func (m *Mastodon) accounts(ctx context.Context, list accountLister) ([]Account, error) {
	self, err := m.selfID(ctx)
	if err != nil {
		return nil, err
	}

	var out []Account
	var maxID mastodon.ID
	for {
		pg := &mastodon.Pagination{MaxID: maxID, Limit: accountsPageSize}
		page, err := list(ctx, self, pg)
		if err != nil {
			return nil, err
		}
		for _, a := range page {
			out = append(out, Account{ID: string(a.ID), Acct: a.Acct})
		}
		if len(page) == 0 || !advance(pg, &maxID) {
			return out, nil
		}
	}
}

// advance moves maxID to the next page the server linked to. It reports
// false on the last page: no rel="next" link leaves pg as it was sent.
func advance(pg *mastodon.Pagination, maxID *mastodon.ID) bool {
	if pg.MaxID == "" || pg.MaxID == *maxID {
		return false
	}
	*maxID = pg.MaxID
	return true
}

// convertStatus maps an API status. The text is filled in even when the
// id is not numeric, in which case ok is false and ID is 0.
func convertStatus(s *mastodon.Status) (Status, bool) {
	text := htmltext.ToText(s.Content)
	if s.Reblog != nil {
		text = strings.TrimSpace("RT @" + s.Reblog.Account.Acct + " " + htmltext.ToText(s.Reblog.Content))
	}
	st := Status{
		Text:      text,
		Author:    s.Account.Acct,
		CreatedAt: s.CreatedAt,
	}
	id, err := strconv.ParseInt(string(s.ID), 10, 64)
	if err != nil {
		return st, false
	}
	st.ID = id
	return st, true
}
