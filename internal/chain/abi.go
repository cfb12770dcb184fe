package chain

import (
	"io"
	"strings"
)

// Minimal ABIs for the quote lens, the curve/DEX router and ERC20: only
// the methods we call.

func mustLensABI() io.Reader {
	return strings.NewReader(`[
		{
			"name": "getAmountOut",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "token",    "type": "address"},
				{"name": "amountIn", "type": "uint256"},
				{"name": "isBuy",    "type": "bool"}
			],
			"outputs": [
				{"name": "router",    "type": "address"},
				{"name": "amountOut", "type": "uint256"}
			]
		}
	]`)
}

func mustRouterABI() io.Reader {
	return strings.NewReader(`[
		{
			"name": "buy",
			"type": "function",
			"stateMutability": "payable",
			"inputs": [
				{"name": "amountOutMin", "type": "uint256"},
				{"name": "token",        "type": "address"},
				{"name": "to",           "type": "address"},
				{"name": "deadline",     "type": "uint256"}
			],
			"outputs": []
		},
		{
			"name": "sell",
			"type": "function",
			"stateMutability": "nonpayable",
			"inputs": [
				{"name": "amountIn",     "type": "uint256"},
				{"name": "amountOutMin", "type": "uint256"},
				{"name": "token",        "type": "address"},
				{"name": "to",           "type": "address"},
				{"name": "deadline",     "type": "uint256"}
			],
			"outputs": []
		}
	]`)
}

func mustERC20ABI() io.Reader {
	return strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "_owner", "type": "address"}],
			"outputs": [{"name": "balance", "type": "uint256"}]
		},
		{
			"name": "allowance",
			"type": "function",
			"stateMutability": "view",
			"inputs": [
				{"name": "_owner",   "type": "address"},
				{"name": "_spender", "type": "address"}
			],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "approve",
			"type": "function",
			"stateMutability": "nonpayable",
			"inputs": [
				{"name": "_spender", "type": "address"},
				{"name": "_value",   "type": "uint256"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		},
		{
			"name": "name",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "string"}]
		},
		{
			"name": "symbol",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "string"}]
		},
		{
			"name": "decimals",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "uint8"}]
		}
	]`)
}
