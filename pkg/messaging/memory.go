package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var ErrClosed = errors.New("broker closed")

// MemoryBroker is an in-process fan-out broker for single-node runs and
// tests. Slow subscribers drop messages rather than block publishers.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string][]chan []byte
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]chan []byte)}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	ch := make(chan []byte, 100)
	b.subs[channel] = append(b.subs[channel], ch)

	go func() {
		<-ctx.Done()
		b.remove(channel, ch)
	}()
	return ch, nil
}

func (b *MemoryBroker) remove(channel string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, c := range subs {
		if c == ch {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subs = map[string][]chan []byte{}
	return nil
}
