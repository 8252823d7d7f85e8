package remote

import (
	"context"
	"sync"
	"time"
)

// Sender delivers a payload without blocking the caller. Send reports whether
// the payload was accepted; delivery failures after acceptance are discarded.
type Sender interface {
	Send(payload []byte) bool
}

// PostFunc performs one delivery attempt.
type PostFunc func(ctx context.Context, payload []byte) error

// BeaconSender queues payloads for a single background worker. It refuses
// payloads when the queue is full or after Close.
type BeaconSender struct {
	post    PostFunc
	timeout time.Duration
	queue   chan []byte

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewBeaconSender starts the worker. capacity bounds the queue.
func NewBeaconSender(post PostFunc, capacity int, timeout time.Duration) *BeaconSender {
	if capacity <= 0 {
		capacity = 16
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &BeaconSender{
		post:    post,
		timeout: timeout,
		queue:   make(chan []byte, capacity),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Send implements Sender.
func (s *BeaconSender) Send(payload []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.queue <- append([]byte(nil), payload...):
		return true
	default:
		return false
	}
}

// Close stops accepting payloads and waits for queued ones to be attempted.
func (s *BeaconSender) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

func (s *BeaconSender) run() {
	defer close(s.done)
	for payload := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		_ = s.post(ctx, payload)
		cancel()
	}
}

// KeepaliveSender fires each payload in its own goroutine with a detached
// context, so the request outlives whatever triggered it.
type KeepaliveSender struct {
	post    PostFunc
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewKeepaliveSender returns a KeepaliveSender bounded by timeout per request.
func NewKeepaliveSender(post PostFunc, timeout time.Duration) *KeepaliveSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KeepaliveSender{post: post, timeout: timeout}
}

// Send implements Sender. It always accepts.
func (s *KeepaliveSender) Send(payload []byte) bool {
	data := append([]byte(nil), payload...)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = s.post(ctx, data)
	}()
	return true
}

// Close waits for in-flight requests.
func (s *KeepaliveSender) Close() error {
	s.wg.Wait()
	return nil
}

type fallbackSender struct {
	primary  Sender
	fallback Sender
}

// FallbackSender tries primary first and hands the payload to fallback when
// primary is nil or refuses it.
func FallbackSender(primary, fallback Sender) Sender {
	return &fallbackSender{primary: primary, fallback: fallback}
}

func (s *fallbackSender) Send(payload []byte) bool {
	if s.primary != nil && s.primary.Send(payload) {
		return true
	}
	if s.fallback == nil {
		return false
	}
	return s.fallback.Send(payload)
}

func (s *fallbackSender) Close() error {
	closeSender(s.primary)
	closeSender(s.fallback)
	return nil
}

func closeSender(s Sender) {
	if c, ok := s.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
