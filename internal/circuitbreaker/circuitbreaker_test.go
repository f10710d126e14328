package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test-rpc")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[int](cfg)
	boom := errors.New("rpc down")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want rpc error", i, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Error("fn should not run while open")
	}
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeCircuitOpen)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestCircuitBreaker_IsSuccessfulIgnoresErrors(t *testing.T) {
	cfg := DefaultConfig("test-pool")
	cfg.ConsecutiveFailures = 1
	notFound := apperror.New(apperror.CodePoolNotFound)
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, apperror.New(apperror.CodePoolNotFound))
	}

	cb := New[string](cfg)
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (string, error) { return "", notFound })
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
	if cb.Name() != "test-pool" {
		t.Errorf("name = %s", cb.Name())
	}
}
