// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is the part of a block header the bot cares about.
type Block struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Timestamp  time.Time
	GasLimit   uint64
	GasUsed    uint64
	BaseFee    *big.Int
}

// BlockFromHeader converts a go-ethereum header.
func BlockFromHeader(h *types.Header) *Block {
	return &Block{
		Number:     h.Number.Uint64(),
		Hash:       h.Hash(),
		ParentHash: h.ParentHash,
		Timestamp:  time.Unix(int64(h.Time), 0),
		GasLimit:   h.GasLimit,
		GasUsed:    h.GasUsed,
		BaseFee:    h.BaseFee,
	}
}

// ConnectionState represents the state of a blockchain connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// Connected reports whether blocks are flowing.
func (s ConnectionState) Connected() bool {
	return s == StateConnected
}

// ConnectionStatus contains detailed connection information.
type ConnectionStatus struct {
	State      ConnectionState
	LastBlock  uint64
	LastUpdate time.Time
	Reconnects int
	UsingHTTP  bool // true while polling instead of streaming
}
