// Package wallet signs flash loan transactions with a local private key.
package wallet

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
)

var _ domain.Signer = (*KeySigner)(nil)

// KeySigner holds one secp256k1 key in memory.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner parses a hex private key, with or without the 0x prefix.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		// Never echo the key back.
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("invalid wallet private key"))
	}
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account the key controls.
func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, apperror.New(apperror.CodeSigningFailed, apperror.WithCause(err))
	}
	return signed, nil
}
