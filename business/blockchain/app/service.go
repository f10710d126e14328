package app

import (
	"context"
	"fmt"

	"github.com/fd1az/flashloan-arbitrage/business/blockchain/domain"
)

// BlockchainService coordinates blockchain interactions.
type BlockchainService struct {
	subscriber BlockSubscriber
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(subscriber BlockSubscriber) *BlockchainService {
	return &BlockchainService{subscriber: subscriber}
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock returns the chain head.
func (s *BlockchainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// Status returns the subscription status.
func (s *BlockchainService) Status() domain.ConnectionStatus {
	return s.subscriber.Status()
}

// Check is a health check: the node must answer for the chain head.
func (s *BlockchainService) Check(ctx context.Context) (bool, string) {
	block, err := s.subscriber.LatestBlock(ctx)
	if err != nil {
		return false, err.Error()
	}
	status := s.subscriber.Status()
	return true, fmt.Sprintf("block %d, %s", block.Number, status.State)
}

// Close stops the subscription.
func (s *BlockchainService) Close() error {
	return s.subscriber.Close()
}
