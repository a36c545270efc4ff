package pricing

// Liquidity describes how quickly the result item sells.
type Liquidity string

const (
	LiquidityUnknown  Liquidity = "unknown"
	LiquidityWontSell Liquidity = "wont_sell"
	LiquiditySlow     Liquidity = "slow"
	LiquiditySells    Liquidity = "sells"
)

// Margin describes a profit percentage.
type Margin string

const (
	MarginNotApplicable Margin = "not_applicable"
	MarginLoss          Margin = "loss"
	MarginLow           Margin = "low"
	MarginHealthy       Margin = "healthy"
)

// Thresholds are the caller-supplied classification limits.
type Thresholds struct {
	// Combined velocity below SlowVelocity means the item won't sell.
	SlowVelocity float64
	// Combined velocity below FastVelocity means the item sells slowly.
	FastVelocity float64
	// Profit fraction below LowMargin is flagged as a low margin.
	LowMargin float64
}

// ClassifyLiquidity maps a combined velocity onto a Liquidity.
func ClassifyLiquidity(velocity *float64, th Thresholds) Liquidity {
	switch {
	case velocity == nil:
		return LiquidityUnknown
	case *velocity < th.SlowVelocity:
		return LiquidityWontSell
	case *velocity < th.FastVelocity:
		return LiquiditySlow
	default:
		return LiquiditySells
	}
}

// ClassifyMargin maps a profit fraction onto a Margin.
func ClassifyMargin(percent *float64, th Thresholds) Margin {
	switch {
	case percent == nil:
		return MarginNotApplicable
	case *percent < 0:
		return MarginLoss
	case *percent < th.LowMargin:
		return MarginLow
	default:
		return MarginHealthy
	}
}
