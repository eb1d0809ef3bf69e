package internal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type mockNATSConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (m *mockNATSConn) Publish(subj string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subj)
	m.payloads = append(m.payloads, data)
	return nil
}

func TestNATSClient_PublishProviderDegraded(t *testing.T) {
	conn := &mockNATSConn{}
	nc := &NATSClient{conn: conn}

	evt := ProviderDegradedEvent{Endpoint: "league_entries_by_summoner", Region: "euw1", StatusCode: 503, Error: "down", OccurredAt: time.Now().UTC()}
	if err := nc.PublishProviderDegraded(evt); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if len(conn.subjects) != 1 || conn.subjects[0] != SubjectProviderDegraded {
		t.Fatalf("unexpected subjects %v", conn.subjects)
	}
	var got ProviderDegradedEvent
	if err := json.Unmarshal(conn.payloads[0], &got); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	if got.StatusCode != 503 || got.Endpoint != evt.Endpoint {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestNATSClient_PublishRankCompleted(t *testing.T) {
	conn := &mockNATSConn{}
	nc := &NATSClient{conn: conn}

	if err := nc.PublishRankCompleted(RankCompletedEvent{InvocationID: "inv-1", ReplyKind: "actionable"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if conn.subjects[0] != SubjectRankCompleted {
		t.Errorf("expected subject %s, got %s", SubjectRankCompleted, conn.subjects[0])
	}
}

func TestNATSClient_PublishError(t *testing.T) {
	nc := &NATSClient{conn: &mockNATSConn{err: errors.New("nats: connection closed")}}
	if err := nc.PublishRankCompleted(RankCompletedEvent{}); err == nil {
		t.Error("expected publish error")
	}
}

func TestNATSClient_PingWithoutConnection(t *testing.T) {
	nc := &NATSClient{conn: &mockNATSConn{}}
	if err := nc.Ping(context.Background()); err != nil {
		t.Errorf("client without a raw connection should report healthy, got %v", err)
	}
	nc.Close()
}

func TestNoopPublisher(t *testing.T) {
	var p EventPublisher = noopPublisher{}
	if err := p.PublishProviderDegraded(ProviderDegradedEvent{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishRankCompleted(RankCompletedEvent{}); err != nil {
		t.Error(err)
	}
}
