package api

import (
	"context"

	"github.com/BasilJohn/GraceGuide/internal/domain"
)

// The daily content endpoints are public, but they still travel the full
// interception pipeline: a bearer is attached when one is present, and the
// backend simply ignores it.

// DailyScripture fetches the combined daily verse and devotional.
func (c *Client) DailyScripture(ctx context.Context) (*domain.DailyScripture, error) {
	var out domain.DailyScripture
	if err := c.do(ctx, &request{method: "GET", path: "api/daily/scripture"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DailyVerse fetches today's verse only.
func (c *Client) DailyVerse(ctx context.Context) (*domain.Verse, error) {
	var out domain.Verse
	if err := c.do(ctx, &request{method: "GET", path: "api/daily/verse"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DailyDevotional fetches today's devotional only.
func (c *Client) DailyDevotional(ctx context.Context) (*domain.Devotional, error) {
	var out domain.Devotional
	if err := c.do(ctx, &request{method: "GET", path: "api/daily/devotional"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
