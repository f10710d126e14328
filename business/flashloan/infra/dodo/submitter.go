// Package dodo submits flash loan requests to the arbitrage contract that
// borrows from a DODO V2 pool.
package dodo

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/flashloan-arbitrage/business/flashloan/app"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/ratelimit"
)

const method = "dodoFlashLoan"

var _ app.Submitter = (*Submitter)(nil)

// Backend is the part of ethclient.Client the submitter needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds submitter settings.
type Config struct {
	ChainID        *big.Int
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

// DefaultConfig returns settings for Polygon PoS.
func DefaultConfig(chainID uint64) Config {
	return Config{
		ChainID:        new(big.Int).SetUint64(chainID),
		ReceiptTimeout: 2 * time.Minute,
		PollInterval:   2 * time.Second,
	}
}

// Submitter signs and broadcasts dodoFlashLoan calls.
type Submitter struct {
	backend Backend
	limiter *ratelimit.Limiter
	abi     abi.ABI
	cfg     Config
	logger  logger.LoggerInterface
}

// NewSubmitter creates a Submitter. limiter throttles receipt polling and
// may be nil.
func NewSubmitter(backend Backend, limiter *ratelimit.Limiter, cfg Config, log logger.LoggerInterface) (*Submitter, error) {
	parsed, err := abi.JSON(strings.NewReader(FlashloanABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse flashloan ABI: %w", err)
	}
	if cfg.ChainID == nil {
		return nil, errors.New("chain id is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.New(0, 1)
	}

	return &Submitter{
		backend: backend,
		limiter: limiter,
		abi:     parsed,
		cfg:     cfg,
		logger:  log,
	}, nil
}

// Pack encodes the contract call for req.
func (s *Submitter) Pack(req *domain.FlashLoanRequest) ([]byte, error) {
	params := flashParams{
		FlashLoanPool: req.Pool,
		LoanAmount:    req.LoanAmount,
		Hops:          make([]hopParams, len(req.Hops)),
	}
	for i, h := range req.Hops {
		params.Hops[i] = hopParams{
			Protocol: h.Protocol,
			Data:     h.Data,
			Path:     []common.Address{h.Path[0], h.Path[1]},
		}
	}
	return s.abi.Pack(method, params)
}

// Submit broadcasts req once and waits for it to be mined. A receipt with
// a failed status comes back together with a REVERT_ERROR carrying the
// reason recovered by replaying the call at the receipt's block.
func (s *Submitter) Submit(ctx context.Context, req *domain.FlashLoanRequest) (*types.Receipt, error) {
	if req.ContractAddress == (common.Address{}) {
		return nil, apperror.New(apperror.CodeSubmissionError,
			apperror.WithContext("no flash loan contract configured"))
	}
	if req.Signer == nil {
		return nil, apperror.New(apperror.CodeSigningFailed,
			apperror.WithContext("request has no signer"))
	}

	data, err := s.Pack(req)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubmissionError,
			apperror.WithCause(err), apperror.WithContext("pack "+method))
	}

	from := req.Signer.Address()
	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubmissionError,
			apperror.WithCause(err), apperror.WithContext("pending nonce"))
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &req.ContractAddress,
		Value:    new(big.Int),
		Gas:      req.GasLimit,
		GasPrice: req.GasPrice,
		Data:     data,
	})

	signed, err := req.Signer.SignTx(tx, s.cfg.ChainID)
	if err != nil {
		return nil, apperror.New(apperror.CodeSigningFailed, apperror.WithCause(err))
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, apperror.New(apperror.CodeSubmissionError,
			apperror.WithCause(err), apperror.WithContext("broadcast"))
	}
	s.logger.Info(ctx, "flash loan broadcast", "tx", signed.Hash().Hex(), "nonce", nonce, "from", from.Hex())

	receipt, err := s.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason := s.revertReason(ctx, from, signed, receipt.BlockNumber)
		return receipt, apperror.New(apperror.CodeRevertError,
			apperror.WithContext(reason),
			apperror.WithMessage("flash loan reverted: "+reason))
	}
	return receipt, nil
}

func (s *Submitter) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if s.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReceiptTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := s.limiter.Wait(ctx); err == nil {
			receipt, err := s.backend.TransactionReceipt(ctx, hash)
			switch {
			case err == nil:
				return receipt, nil
			case !errors.Is(err, ethereum.NotFound):
				s.logger.Warn(ctx, "receipt poll failed", "tx", hash.Hex(), "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeReceiptTimeout,
				apperror.WithCause(ctx.Err()), apperror.WithContext(hash.Hex()))
		case <-ticker.C:
		}
	}
}

// revertReason replays the transaction as a call at the block it was mined
// in and decodes Error(string) from the revert data.
func (s *Submitter) revertReason(ctx context.Context, from common.Address, tx *types.Transaction, block *big.Int) string {
	call := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}

	_, err := s.backend.CallContract(ctx, call, block)
	if err == nil {
		return "unknown (replay succeeded)"
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		if hexData, ok := de.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(hexData); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}
	return err.Error()
}
