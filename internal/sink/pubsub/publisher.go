// Package pubsub implements a record sink publishing to Google Cloud
// Pub/Sub, for runs whose records feed a downstream topic instead of (or in
// addition to) the output file.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/jsonharvest/crawler/internal/crawler"
)

// Sink publishes each output record as one Pub/Sub message.
type Sink struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New connects to the project and targets topic. Publish failures surface
// per record; connection problems surface here at startup.
func New(ctx context.Context, projectID, topic string) (*Sink, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return &Sink{
		client: client,
		topic:  client.Topic(topic),
	}, nil
}

// Write publishes the record and waits for the server ack.
func (s *Sink) Write(ctx context.Context, record crawler.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	result := s.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"source_url": record.SourceURL,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish record: %w", err)
	}
	return nil
}

// Close stops the topic's publish goroutines and releases the client.
func (s *Sink) Close() error {
	s.topic.Stop()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
