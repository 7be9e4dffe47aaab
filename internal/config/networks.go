package config

type Network struct {
	Name     string
	ChainID  int64
	RPCURL   string
	Explorer string
	Symbol   string
	Decimals int
	// PriorityFeeGwei is the fixed maxPriorityFeePerGas used for every transaction.
	PriorityFeeGwei float64
}

var XterioChain = Network{
	Name:            "Xterio Chain",
	ChainID:         112358,
	RPCURL:          "https://xterio-eth.alt.technology",
	Explorer:        "https://eth.xterscan.io/",
	Symbol:          "ETH",
	Decimals:        18,
	PriorityFeeGwei: 0.002,
}

var BNBSmartChain = Network{
	Name:            "BNB Smart Chain",
	ChainID:         56,
	RPCURL:          "https://bsc-dataseed.binance.org",
	Explorer:        "https://bscscan.com/",
	Symbol:          "BNB",
	Decimals:        18,
	PriorityFeeGwei: 1,
}

func (n Network) WithRPC(url string) Network {
	if url != "" {
		n.RPCURL = url
	}
	return n
}

func (n Network) TxURL(hash string) string {
	return n.Explorer + "tx/" + hash
}
