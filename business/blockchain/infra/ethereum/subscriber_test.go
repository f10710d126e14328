package ethereum

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/flashloan-arbitrage/business/blockchain/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

func header(n int64) *types.Header {
	return &types.Header{
		Number:     big.NewInt(n),
		Difficulty: big.NewInt(0),
		Time:       uint64(time.Now().Unix()),
	}
}

// fakeReader returns heads in order, repeating the last one.
type fakeReader struct {
	mu    sync.Mutex
	heads []int64
	err   error
	calls int
}

func (f *fakeReader) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n := f.heads[0]
	if len(f.heads) > 1 {
		f.heads = f.heads[1:]
	}
	return header(n), nil
}

type fakeSub struct {
	errc chan error
	once sync.Once
}

func (s *fakeSub) Unsubscribe()      { s.once.Do(func() { close(s.errc) }) }
func (s *fakeSub) Err() <-chan error { return s.errc }

// fakeStream hands the test the header channel of each subscription.
type fakeStream struct {
	subs   chan chan<- *types.Header
	sub    *fakeSub
	err    error
	closed bool
}

func (f *fakeStream) SubscribeNewHead(_ context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sub = &fakeSub{errc: make(chan error, 1)}
	f.subs <- ch
	return f.sub, nil
}

func (f *fakeStream) Close() { f.closed = true }

func testConfig() SubscriberConfig {
	return SubscriberConfig{
		PollInterval:   5 * time.Millisecond,
		ReconnectDelay: time.Hour,
		BufferSize:     8,
	}
}

func newTestSubscriber(t *testing.T, stream HeadStreamer, reader HeaderReader) *Subscriber {
	t.Helper()
	s, err := NewSubscriber(testConfig(), stream, reader, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func next(t *testing.T, blocks <-chan *domain.Block) *domain.Block {
	t.Helper()
	select {
	case b, ok := <-blocks:
		if !ok {
			t.Fatal("block channel closed")
		}
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a block")
		return nil
	}
}

func TestSubscriber_PollingOnly(t *testing.T) {
	reader := &fakeReader{heads: []int64{100, 100, 101, 101, 103}}
	s := newTestSubscriber(t, nil, reader)

	blocks, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for _, want := range []uint64{100, 101, 103} {
		if got := next(t, blocks).Number; got != want {
			t.Fatalf("block = %d, want %d", got, want)
		}
	}

	status := s.Status()
	if !status.UsingHTTP || status.LastBlock != 103 || !status.State.Connected() {
		t.Errorf("status = %+v", status)
	}
}

func TestSubscriber_StreamThenFallback(t *testing.T) {
	stream := &fakeStream{subs: make(chan chan<- *types.Header, 1)}
	reader := &fakeReader{heads: []int64{205}}
	s := newTestSubscriber(t, stream, reader)

	blocks, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	heads := <-stream.subs
	heads <- header(200)
	heads <- header(199) // stale, dropped
	heads <- header(201)

	if got := next(t, blocks).Number; got != 200 {
		t.Fatalf("block = %d, want 200", got)
	}
	if got := next(t, blocks).Number; got != 201 {
		t.Fatalf("block = %d, want 201", got)
	}
	if s.Status().UsingHTTP {
		t.Error("UsingHTTP = true while streaming")
	}

	stream.sub.errc <- errors.New("websocket: close 1006")

	if got := next(t, blocks).Number; got != 205 {
		t.Fatalf("block = %d, want 205 from polling", got)
	}
	status := s.Status()
	if !status.UsingHTTP || status.Reconnects != 1 {
		t.Errorf("status = %+v, want polling after one reconnect", status)
	}
}

func TestSubscriber_RetriesStreamAfterReconnectDelay(t *testing.T) {
	stream := &fakeStream{subs: make(chan chan<- *types.Header, 1)}
	reader := &fakeReader{heads: []int64{205}}
	cfg := testConfig()
	cfg.ReconnectDelay = 20 * time.Millisecond
	s, err := NewSubscriber(cfg, stream, reader, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	blocks, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	<-stream.subs
	stream.sub.errc <- errors.New("websocket: close 1006")

	if got := next(t, blocks).Number; got != 205 {
		t.Fatalf("block = %d, want 205 from polling", got)
	}

	var heads chan<- *types.Header
	select {
	case heads = <-stream.subs:
	case <-time.After(2 * time.Second):
		t.Fatal("stream was not retried")
	}
	heads <- header(300)

	for {
		if b := next(t, blocks); b.Number == 300 {
			break
		}
	}
	if s.Status().UsingHTTP {
		t.Error("UsingHTTP = true after the stream came back")
	}
}

func TestNewSubscriber_Defaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  SubscriberConfig
		want SubscriberConfig
	}{
		{
			name: "zero_values_take_defaults",
			cfg:  SubscriberConfig{},
			want: SubscriberConfig{
				PollInterval:   DefaultSubscriberConfig().PollInterval,
				ReconnectDelay: DefaultSubscriberConfig().ReconnectDelay,
				BufferSize:     1,
			},
		},
		{
			name: "explicit_values_kept",
			cfg:  testConfig(),
			want: testConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSubscriber(tt.cfg, nil, &fakeReader{heads: []int64{1}}, logger.New(io.Discard, logger.LevelError, "test", nil))
			if err != nil {
				t.Fatalf("NewSubscriber() error = %v", err)
			}
			if s.config != tt.want {
				t.Errorf("config = %+v, want %+v", s.config, tt.want)
			}
		})
	}
}

func TestSubscriber_StreamUnavailable(t *testing.T) {
	stream := &fakeStream{err: errors.New("dial tcp: refused")}
	reader := &fakeReader{heads: []int64{7}}
	s := newTestSubscriber(t, stream, reader)

	blocks, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if got := next(t, blocks).Number; got != 7 {
		t.Fatalf("block = %d, want 7", got)
	}
}

func TestSubscriber_CloseEndsChannel(t *testing.T) {
	stream := &fakeStream{subs: make(chan chan<- *types.Header, 1)}
	s := newTestSubscriber(t, stream, &fakeReader{heads: []int64{1}})

	blocks, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	<-stream.subs

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case _, ok := <-blocks:
		if ok {
			t.Fatal("unexpected block after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
	if !stream.closed {
		t.Error("stream connection not closed")
	}
	if s.State() != domain.StateDisconnected {
		t.Errorf("State() = %s", s.State())
	}

	if _, err := s.Subscribe(context.Background()); err == nil {
		t.Error("Subscribe() after Close should fail")
	}
}

func TestSubscriber_SubscribeTwice(t *testing.T) {
	s := newTestSubscriber(t, nil, &fakeReader{heads: []int64{1}})
	if _, err := s.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	_, err := s.Subscribe(context.Background())
	if apperror.GetCode(err) != apperror.CodeEthereumSubscribeFailed {
		t.Errorf("second Subscribe() code = %s", apperror.GetCode(err))
	}
}

func TestSubscriber_LatestBlock(t *testing.T) {
	s := newTestSubscriber(t, nil, &fakeReader{heads: []int64{42}})
	b, err := s.LatestBlock(context.Background())
	if err != nil {
		t.Fatalf("LatestBlock() error = %v", err)
	}
	if b.Number != 42 {
		t.Errorf("Number = %d, want 42", b.Number)
	}

	down := newTestSubscriber(t, nil, &fakeReader{err: errors.New("connection refused")})
	_, err = down.LatestBlock(context.Background())
	if !errors.Is(err, apperror.New(apperror.CodeConnectionError)) {
		t.Errorf("LatestBlock() error = %v, want CONNECTION_ERROR", err)
	}
}

func TestSubscriber_EmitKeepsNewest(t *testing.T) {
	cfg := testConfig()
	cfg.BufferSize = 1
	s, err := NewSubscriber(cfg, nil, &fakeReader{heads: []int64{1}}, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewSubscriber() error = %v", err)
	}

	ctx := context.Background()
	s.emit(ctx, header(10), true)
	s.emit(ctx, header(11), true)
	s.emit(ctx, header(12), true)

	if got := (<-s.blocks).Number; got != 12 {
		t.Errorf("pending block = %d, want 12", got)
	}
}
