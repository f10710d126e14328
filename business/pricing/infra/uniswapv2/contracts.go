package uniswapv2

// FactoryABI covers IUniswapV2Factory.getPair.
const FactoryABI = `[
	{
		"constant": true,
		"inputs": [
			{"internalType": "address", "name": "tokenA", "type": "address"},
			{"internalType": "address", "name": "tokenB", "type": "address"}
		],
		"name": "getPair",
		"outputs": [{"internalType": "address", "name": "pair", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// PairABI covers IUniswapV2Pair.getReserves.
const PairABI = `[
	{
		"constant": true,
		"inputs": [],
		"name": "getReserves",
		"outputs": [
			{"internalType": "uint112", "name": "_reserve0", "type": "uint112"},
			{"internalType": "uint112", "name": "_reserve1", "type": "uint112"},
			{"internalType": "uint32", "name": "_blockTimestampLast", "type": "uint32"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// RouterABI covers IUniswapV2Router02.quote.
const RouterABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountA", "type": "uint256"},
			{"internalType": "uint256", "name": "reserveA", "type": "uint256"},
			{"internalType": "uint256", "name": "reserveB", "type": "uint256"}
		],
		"name": "quote",
		"outputs": [{"internalType": "uint256", "name": "amountB", "type": "uint256"}],
		"stateMutability": "pure",
		"type": "function"
	}
]`
