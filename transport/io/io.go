// Package io provides a spool-file transport: messages are appended to a
// JSON-lines file and consumed per queue, with the consumed offset of each
// queue kept in a sidecar file so a later connection resumes where the
// previous one stopped.
package io

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/mqflow/internal/runtime/jsoncodec"
	"github.com/drblury/mqflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "io"

// DefaultFilePath is the spool file used when none is configured.
const DefaultFilePath = "mqflow.spool"

// OffsetSuffix is appended to the spool path to name the offsets file.
const OffsetSuffix = ".offsets"

// PollInterval is how long a subscriber waits at the end of the file.
var PollInterval = 50 * time.Millisecond

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return &Publisher{filePath: filePath, logger: logger}, nil
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return NewSubscriber(filePath, logger)
}

func init() {
	Register()
}

// Register registers the spool transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.IOCapabilities)
}

// Build creates a new spool transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	filePath := cfg.GetSpoolFile()
	if filePath == "" {
		filePath = DefaultFilePath
	}

	pub, err := PublisherFactory(filePath, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	sub, err := SubscriberFactory(filePath, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.IOCapabilities
}

type storedMessage struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata"`
	Payload  []byte            `json:"payload"`
	Topic    string            `json:"topic"`
}

// Publisher appends messages to the spool file.
type Publisher struct {
	filePath string
	logger   watermill.LoggerAdapter
	mu       sync.Mutex
}

// Publish writes one line per message.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	for _, msg := range messages {
		if err := jsoncodec.Encode(&buf, storedMessage{
			UUID:     msg.UUID,
			Metadata: msg.Metadata,
			Payload:  msg.Payload,
			Topic:    topic,
		}); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(p.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(buf.Bytes())
	return err
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	return nil
}

// Subscriber reads a queue's messages from the spool file.
type Subscriber struct {
	filePath string
	logger   watermill.LoggerAdapter
	offsets  *offsetStore
}

// NewSubscriber creates a subscriber and loads the stored offsets.
func NewSubscriber(filePath string, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	offsets, err := loadOffsets(filePath + OffsetSuffix)
	if err != nil {
		return nil, err
	}
	return &Subscriber{filePath: filePath, logger: logger, offsets: offsets}, nil
}

// Subscribe streams the messages of topic, starting after the last
// acknowledged one.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	f, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	out := make(chan *message.Message)
	go func() {
		defer close(out)
		defer f.Close()
		s.consume(ctx, f, topic, out)
	}()
	return out, nil
}

func (s *Subscriber) consume(ctx context.Context, f *os.File, topic string, out chan<- *message.Message) {
	pos := s.offsets.get(topic)
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		s.logger.Error("Failed to seek spool file", err, watermill.LogFields{"queue": topic})
		return
	}
	reader := bufio.NewReader(f)

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Leave a partially written line for the next read.
			select {
			case <-ctx.Done():
				return
			case <-time.After(PollInterval):
			}
			if _, err := f.Seek(pos, io.SeekStart); err != nil {
				s.logger.Error("Failed to seek spool file", err, watermill.LogFields{"queue": topic})
				return
			}
			reader.Reset(f)
			continue
		}
		if err != nil {
			s.logger.Error("Failed to read spool file", err, watermill.LogFields{"queue": topic})
			return
		}

		next := pos + int64(len(line))
		if !s.deliver(ctx, line, topic, out) {
			return
		}
		pos = next
		if err := s.offsets.set(topic, pos); err != nil {
			s.logger.Error("Failed to store spool offset", err, watermill.LogFields{"queue": topic})
		}
	}
}

// deliver hands a matching line to out until it is acked. It returns false
// when ctx ended first.
func (s *Subscriber) deliver(ctx context.Context, line []byte, topic string, out chan<- *message.Message) bool {
	var sm storedMessage
	if err := jsoncodec.Unmarshal(line, &sm); err != nil {
		s.logger.Error("Skipping malformed spool line", err, watermill.LogFields{"queue": topic})
		return true
	}
	if sm.Topic != topic {
		return true
	}

	for {
		msg := message.NewMessage(sm.UUID, sm.Payload)
		for k, v := range sm.Metadata {
			msg.Metadata.Set(k, v)
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return false
		}

		select {
		case <-msg.Acked():
			return true
		case <-msg.Nacked():
			s.logger.Debug("Message nacked, redelivering", watermill.LogFields{"uuid": msg.UUID})
		case <-ctx.Done():
			return false
		}
	}
}

// Close closes the subscriber.
func (s *Subscriber) Close() error {
	return nil
}

type offsetStore struct {
	path    string
	mu      sync.Mutex
	offsets map[string]int64
}

func loadOffsets(path string) (*offsetStore, error) {
	store := &offsetStore{path: path, offsets: map[string]int64{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return store, nil
	}
	if err := jsoncodec.Unmarshal(data, &store.offsets); err != nil {
		return nil, err
	}
	return store, nil
}

func (o *offsetStore) get(topic string) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offsets[topic]
}

func (o *offsetStore) set(topic string, pos int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offsets[topic] = pos
	data, err := jsoncodec.Marshal(o.offsets)
	if err != nil {
		return err
	}
	tmp := o.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, o.path)
}
