package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

// recordingSink captures events and attempt id pushes for verification.
type recordingSink struct {
	mu       sync.Mutex
	events   []Event
	ids      []string
	writeErr error
	panicMsg string
	flushed  atomic.Int32
	closed   atomic.Bool
}

func (s *recordingSink) Write(ctx context.Context, event Event) error {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) SetCheckoutAttemptID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *recordingSink) Flush(ctx context.Context) error {
	s.flushed.Add(1)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *recordingSink) getEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Event, len(s.events))
	copy(result, s.events)
	return result
}

func (s *recordingSink) getIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.ids))
	copy(result, s.ids)
	return result
}

// scriptedPerformer answers every Perform call with the next scripted reply.
type scriptedPerformer struct {
	mu       sync.Mutex
	replies  []reply
	requests []apiclient.Request
	ctxErrs  []error
	calls    atomic.Int32
}

type reply struct {
	body string
	err  error
}

func (p *scriptedPerformer) Perform(ctx context.Context, req apiclient.Request, out any) error {
	p.calls.Add(1)
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	var r reply
	if len(p.replies) > 0 {
		r = p.replies[0]
		if len(p.replies) > 1 {
			p.replies = p.replies[1:]
		}
	}
	p.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	if out == nil || r.body == "" {
		return nil
	}
	return json.Unmarshal([]byte(r.body), out)
}

func (p *scriptedPerformer) getRequests() []apiclient.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]apiclient.Request, len(p.requests))
	copy(result, p.requests)
	return result
}

func (p *scriptedPerformer) getCtxErrs() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]error, len(p.ctxErrs))
	copy(result, p.ctxErrs)
	return result
}
