package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/BasilJohn/GraceGuide/internal/domain"
)

// SubmitCheckIn records a check-in and returns the generated guidance.
func (c *Client) SubmitCheckIn(ctx context.Context, input domain.CheckInInput) (*domain.CheckIn, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode check-in: %w", err)
	}

	var out domain.CheckIn
	if err := c.do(ctx, &request{
		method: "POST",
		path:   "api/checkin",
		body:   body,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentCheckIns returns a page of the user's recent check-ins.
func (c *Client) RecentCheckIns(ctx context.Context, limit, offset int) (*domain.CheckInList, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var out domain.CheckInList
	if err := c.do(ctx, &request{
		method: "GET",
		path:   "api/checkin/recent",
		query:  query,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
