// Package social is the bot's view of the social network: who follows it,
// what they post and how to post back.
package social

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Account is a user on the network.
type Account struct {
	ID   string
	Acct string // user@domain, or user for local accounts
}

// Status is a single post as seen on a timeline.
type Status struct {
	ID        int64
	Text      string
	Author    string
	CreatedAt time.Time
}

// Client is what the bot needs from a social network.
type Client interface {
	GetFollowers(ctx context.Context) ([]Account, error)
	GetFriends(ctx context.Context) ([]Account, error)
	CreateFriendship(ctx context.Context, id string) error
	GetUserTimeline(ctx context.Context, userID string, count int) ([]Status, error)
	PostUpdate(ctx context.Context, text string) (Status, error)
}

var (
	// ErrNotAuthorized is returned when the server refuses access, either to
	// the bot itself or to a protected timeline.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrRateLimited is returned when the rate limit did not clear after
	// waiting.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status   int
	Endpoint string
	Body     string
	Err      error // ErrNotAuthorized, ErrRateLimited or nil
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("social: %s: %v (status %d): %s", e.Endpoint, e.Err, e.Status, e.Body)
	}
	return fmt.Sprintf("social: %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }
