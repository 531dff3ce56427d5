// Package cxdb provides a sink that journals analytics error events to cxdb
// as SystemMessage items, one cxdb context per checkout attempt.
package cxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"unicode/utf8"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// CXDBClient is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type CXDBClient interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// CXDBSinkOption configures the CXDB sink.
type CXDBSinkOption func(*cxdbSinkConfig)

type cxdbSinkConfig struct {
	attemptLabels []string
	orphanLabels  []string
	clientTag     string
}

// WithAttemptLabels sets labels for checkout attempt contexts. The attempt id
// is always added as an "attempt:<id>" label.
func WithAttemptLabels(labels []string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.attemptLabels = labels
	}
}

// WithOrphanLabels sets labels for errors reported before any checkout
// attempt id was known.
func WithOrphanLabels(labels []string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.orphanLabels = labels
	}
}

// WithClientTag sets the client tag for new contexts.
func WithClientTag(tag string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.clientTag = tag
	}
}

// journal tracks the head of one checkout attempt context.
type journal struct {
	contextID  uint64
	headTurnID uint64
}

type cxdbSink struct {
	client CXDBClient
	cfg    *cxdbSinkConfig

	mu        sync.Mutex
	attemptID string
	journals  map[string]*journal
}

// NewCXDBSink creates a sink that writes error events to cxdb. Info and log
// events are accepted and ignored.
func NewCXDBSink(client CXDBClient, opts ...CXDBSinkOption) analytics.Sink {
	cfg := &cxdbSinkConfig{
		attemptLabels: []string{"checkout", "error"},
		orphanLabels:  []string{"checkout", "error", "unlinked"},
		clientTag:     "checkout-actions",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cxdbSink{
		client:   client,
		cfg:      cfg,
		journals: make(map[string]*journal),
	}
}

// Write appends an error event to the context of its checkout attempt.
func (s *cxdbSink) Write(ctx context.Context, event analytics.Event) error {
	errEvent, ok := event.(analytics.ErrorEvent)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attemptID := errEvent.CheckoutAttemptID
	if attemptID == "" {
		attemptID = s.attemptID
	}

	j, isNew, err := s.journalFor(ctx, attemptID)
	if err != nil {
		return err
	}

	item := s.buildConversationItem(errEvent, attemptID, isNew)
	payload, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req := &cxdbclient.AppendRequest{
		ContextID:      j.contextID,
		ParentTurnID:   j.headTurnID,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        payload,
		IdempotencyKey: errEvent.ID,
	}

	result, err := s.client.AppendTurn(ctx, req)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	if result != nil {
		j.headTurnID = result.TurnID
	}
	return nil
}

// journalFor returns the journal of attemptID, creating its context on first
// use. Errors without an attempt id each get their own orphan context.
func (s *cxdbSink) journalFor(ctx context.Context, attemptID string) (*journal, bool, error) {
	if attemptID != "" {
		if j, ok := s.journals[attemptID]; ok {
			return j, false, nil
		}
	}

	head, err := s.client.CreateContext(ctx, 0)
	if err != nil {
		if attemptID == "" {
			return nil, false, fmt.Errorf("create orphan context: %w", err)
		}
		return nil, false, fmt.Errorf("create context for attempt %s: %w", attemptID, err)
	}

	j := &journal{contextID: head.ContextID, headTurnID: head.HeadTurnID}
	if attemptID != "" {
		s.journals[attemptID] = j
	}
	return j, true, nil
}

func (s *cxdbSink) buildConversationItem(event analytics.ErrorEvent, attemptID string, isNew bool) *cxdtypes.ConversationItem {
	// Title: "component errorType code: truncated_message"
	title := event.Component + " " + string(event.ErrorType)
	if event.Code != "" {
		title += " " + event.Code
	}
	if event.Message != "" {
		const maxMsgLen = 80
		msg := event.Message
		if len(msg) > maxMsgLen {
			msg = cut(msg, maxMsgLen) + "..."
		}
		title += ": " + msg
	}
	if len(title) > 100 {
		title = cut(title, 97) + "..."
	}

	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: event.Timestamp * 1000,
		ID:        event.ID,
		System: &cxdtypes.SystemMessage{
			Kind:    cxdtypes.SystemKindError,
			Title:   title,
			Content: buildErrorDetails(event, attemptID),
		},
	}

	// cxdb expects context metadata on the first turn.
	if isNew {
		labels := s.cfg.orphanLabels
		if attemptID != "" {
			labels = append(append([]string{}, s.cfg.attemptLabels...), "attempt:"+attemptID)
		}
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    labels,
			ClientTag: s.cfg.clientTag,
		}
	}

	return item
}

// buildErrorDetails encodes the full ErrorEvent as JSON for SystemMessage.Content.
func buildErrorDetails(event analytics.ErrorEvent, attemptID string) string {
	details := map[string]any{
		"event_id":     event.ID,
		"timestamp":    event.Timestamp,
		"component":    event.Component,
		"error_type":   string(event.ErrorType),
		"grouping_key": analytics.GroupingKey(event),
	}
	if event.Code != "" {
		details["code"] = event.Code
	}
	if event.Message != "" {
		details["message"] = event.Message
	}
	if attemptID != "" {
		details["checkout_attempt_id"] = attemptID
	}

	jsonBytes, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to encode details: %s"}`, err)
	}
	return string(jsonBytes)
}

// SetCheckoutAttemptID sets the attempt used for events that were not stamped.
func (s *cxdbSink) SetCheckoutAttemptID(id string) {
	s.mu.Lock()
	s.attemptID = id
	s.mu.Unlock()
}

// Flush is a no-op for the cxdb sink (writes are synchronous).
func (s *cxdbSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the cxdb sink.
func (s *cxdbSink) Close() error {
	return nil
}

// cut shortens s to at most n bytes on a rune boundary.
func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
