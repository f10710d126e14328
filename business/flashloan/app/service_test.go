package app_test

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/flashloan-arbitrage/business/flashloan/app"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

type fakeSubmitter struct {
	calls   int
	got     *domain.FlashLoanRequest
	receipt *types.Receipt
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, req *domain.FlashLoanRequest) (*types.Receipt, error) {
	f.calls++
	f.got = req
	return f.receipt, f.err
}

func newService(t *testing.T, sub app.Submitter) *app.FlashLoanService {
	t.Helper()
	svc, err := app.NewFlashLoanService(newBuilder(domain.RichFirst), sub, params(),
		logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewFlashLoanService() error = %v", err)
	}
	return svc
}

func TestFlashLoanService_PrepareAndSubmit(t *testing.T) {
	sub := &fakeSubmitter{receipt: &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0xabc"),
		BlockNumber: big.NewInt(50_000_000),
		GasUsed:     412_000,
	}}
	svc := newService(t, sub)

	req, err := svc.Prepare(decide(t, "3000.00", "3000.40", "0.20"))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	receipt, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sub.calls != 1 || sub.got != req {
		t.Errorf("submitter calls = %d, same request = %v", sub.calls, sub.got == req)
	}
	if receipt.TxHash != common.HexToHash("0xabc") {
		t.Errorf("receipt tx = %s", receipt.TxHash.Hex())
	}
}

func TestFlashLoanService_Submit_ErrorsAreReturnedVerbatim(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "revert",
			err:  apperror.New(apperror.CodeRevertError, apperror.WithContext("execution reverted: no profit")),
		},
		{
			name: "broadcast_failure",
			err:  apperror.New(apperror.CodeSubmissionError, apperror.WithCause(errors.New("nonce too low"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{err: tt.err}
			svc := newService(t, sub)

			req, err := svc.Prepare(decide(t, "3000.00", "3000.40", "0.20"))
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}

			_, err = svc.Submit(context.Background(), req)
			if err != tt.err {
				t.Fatalf("Submit() error = %v, want %v", err, tt.err)
			}
			if sub.calls != 1 {
				t.Errorf("submitter calls = %d, want exactly 1", sub.calls)
			}
		})
	}
}

func TestFlashLoanService_Prepare_NonActing(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := newService(t, sub)

	_, err := svc.Prepare(decide(t, "3000.00", "3000.05", "0.20"))
	if !errors.Is(err, apperror.New(apperror.CodeInvalidDecision)) {
		t.Fatalf("Prepare() error = %v, want INVALID_DECISION", err)
	}
	if sub.calls != 0 {
		t.Error("submitter called for a non-acting decision")
	}
}
