package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// ReplayResult summarizes a Replay run.
type ReplayResult struct {
	Delivered int
	Skipped   int
	Failed    int
}

// ErrUnacknowledged is returned when a sink flushed without error but
// accepted fewer events than it was given.
var ErrUnacknowledged = errors.New("sink did not acknowledge every event")

// Replay delivers spooled events to sink, one checkout attempt at a time,
// and deletes each attempt's events once sink.Flush succeeds. If sink is an
// analytics.Acknowledger, every event of the attempt must also have been
// acknowledged, otherwise the attempt stays spooled. Events with no checkout
// attempt id stay spooled.
//
// The sink should not send on its own schedule or drop events on overflow;
// use a batch sink with WithManualFlush and WithUnboundedBuffers.
func Replay(ctx context.Context, spool *Spool, sink analytics.Sink, limit int) (ReplayResult, error) {
	var res ReplayResult

	records, err := spool.Pending(ctx, limit)
	if err != nil {
		return res, err
	}

	var order []string
	byAttempt := make(map[string][]Record)
	for _, rec := range records {
		if rec.CheckoutAttemptID == "" {
			res.Skipped++
			continue
		}
		if _, ok := byAttempt[rec.CheckoutAttemptID]; !ok {
			order = append(order, rec.CheckoutAttemptID)
		}
		byAttempt[rec.CheckoutAttemptID] = append(byAttempt[rec.CheckoutAttemptID], rec)
	}

	var firstErr error
	for _, attemptID := range order {
		group := byAttempt[attemptID]
		if err := deliver(ctx, sink, attemptID, group); err != nil {
			res.Failed += len(group)
			if firstErr == nil {
				firstErr = fmt.Errorf("replay attempt %s: %w", attemptID, err)
			}
			continue
		}

		seqs := make([]int64, len(group))
		for i, rec := range group {
			seqs[i] = rec.Seq
		}
		if err := spool.Delete(ctx, seqs...); err != nil {
			return res, err
		}
		res.Delivered += len(group)
	}
	return res, firstErr
}

func deliver(ctx context.Context, sink analytics.Sink, attemptID string, group []Record) error {
	acker, counted := sink.(analytics.Acknowledger)
	var before int64
	if counted {
		before = acker.Acknowledged()
	}

	sink.SetCheckoutAttemptID(attemptID)
	for _, rec := range group {
		if err := sink.Write(ctx, rec.Event); err != nil {
			return err
		}
	}
	if err := sink.Flush(ctx); err != nil {
		return err
	}

	if counted {
		if got := acker.Acknowledged() - before; got != int64(len(group)) {
			return fmt.Errorf("%w: %d of %d", ErrUnacknowledged, got, len(group))
		}
	}
	return nil
}
