package skynet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// TrackResult is the outcome of tracking one waybill in a batch.
type TrackResult struct {
	WaybillNumber string
	Response      *Response
	Err           error
}

// TrackWaybills tracks several waybills in parallel, at most concurrency at a time
// (unbounded when concurrency <= 0). Results keep the order of waybillNumbers.
// Errors from individual waybills are reported per result and don't stop the batch.
func (c *Client) TrackWaybills(ctx context.Context, waybillNumbers []string, concurrency int) []TrackResult {
	results := make([]TrackResult, len(waybillNumbers))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, number := range waybillNumbers {
		g.Go(func() error {
			resp, err := c.TrackWaybill(ctx, number)
			results[i] = TrackResult{WaybillNumber: number, Response: resp, Err: err}
			return nil // Don't cancel the remaining waybills
		})
	}

	g.Wait()
	return results
}

// FirstError returns the first failed result's error, annotated with its waybill number.
func FirstError(results []TrackResult) error {
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("waybill %s: %w", r.WaybillNumber, r.Err)
		}
	}
	return nil
}
