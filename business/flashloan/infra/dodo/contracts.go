package dodo

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FlashloanABI covers the arbitrage contract entry point. Each hop carries
// the venue protocol id, abi.encode(router) and the swap path.
const FlashloanABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "flashLoanPool", "type": "address"},
					{"internalType": "uint256", "name": "loanAmount", "type": "uint256"},
					{
						"components": [
							{"internalType": "uint8", "name": "protocol", "type": "uint8"},
							{"internalType": "bytes", "name": "data", "type": "bytes"},
							{"internalType": "address[]", "name": "path", "type": "address[]"}
						],
						"internalType": "struct Flashloan.Hop[]",
						"name": "hops",
						"type": "tuple[]"
					}
				],
				"internalType": "struct Flashloan.FlashParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "dodoFlashLoan",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// flashParams mirrors Flashloan.FlashParams for abi packing.
type flashParams struct {
	FlashLoanPool common.Address
	LoanAmount    *big.Int
	Hops          []hopParams
}

type hopParams struct {
	Protocol uint8
	Data     []byte
	Path     []common.Address
}
