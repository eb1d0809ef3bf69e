package internal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectProviderDegraded = "rankbot.provider.degraded"
	SubjectRankCompleted    = "rankbot.rank.completed"
)

type natsConn interface {
	Publish(subj string, data []byte) error
}

type NATSClient struct {
	conn natsConn
	raw  *nats.Conn
}

func NewNATSClient(cfg *Config) (*NATSClient, error) {
	conn, err := nats.Connect(cfg.NATSUrl,
		nats.Name(cfg.NATSClientID),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &NATSClient{conn: conn, raw: conn}, nil
}

func (nc *NATSClient) PublishProviderDegraded(evt ProviderDegradedEvent) error {
	return nc.publishJSON(SubjectProviderDegraded, evt)
}

func (nc *NATSClient) PublishRankCompleted(evt RankCompletedEvent) error {
	return nc.publishJSON(SubjectRankCompleted, evt)
}

func (nc *NATSClient) publishJSON(subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return nc.conn.Publish(subject, data)
}

// Ping reports whether the connection is currently up.
func (nc *NATSClient) Ping(ctx context.Context) error {
	if nc.raw == nil {
		return nil
	}
	if !nc.raw.IsConnected() {
		return errors.New("nats: not connected")
	}
	return nc.raw.FlushWithContext(ctx)
}

func (nc *NATSClient) Close() {
	if nc.raw != nil {
		nc.raw.Drain()
	}
}

// noopPublisher stands in when NATS is disabled.
type noopPublisher struct{}

func (noopPublisher) PublishProviderDegraded(ProviderDegradedEvent) error { return nil }
func (noopPublisher) PublishRankCompleted(RankCompletedEvent) error       { return nil }
