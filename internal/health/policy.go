package health

// Policy holds the invalidation thresholds. The defaults come from the
// production fixtures; confirm them against the desk's risk policy before
// deploying with real capital.
type Policy struct {
	ExpectancyWindow    int     `json:"expectancy_window" yaml:"expectancy_window"`
	ExpectancyMinTrades int     `json:"expectancy_min_trades" yaml:"expectancy_min_trades"`
	ExpectancyMin       float64 `json:"expectancy_min" yaml:"expectancy_min"` // disable at or below

	HighConfidenceCutoff     float64 `json:"high_confidence_cutoff" yaml:"high_confidence_cutoff"`
	HighConfidenceMinTrades  int     `json:"high_confidence_min_trades" yaml:"high_confidence_min_trades"`
	HighConfidenceMinWinRate float64 `json:"high_confidence_min_win_rate" yaml:"high_confidence_min_win_rate"` // percent

	MaxConsecutiveLosses int `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`

	SharpeWindow     int     `json:"sharpe_window" yaml:"sharpe_window"`
	SharpeMinTrades  int     `json:"sharpe_min_trades" yaml:"sharpe_min_trades"`
	RollingSharpeMin float64 `json:"rolling_sharpe_min" yaml:"rolling_sharpe_min"`

	MaxDrawdownPaperOnly float64 `json:"max_drawdown_paper_only" yaml:"max_drawdown_paper_only"` // negative fraction

	DefaultConfidenceThreshold float64 `json:"default_confidence_threshold" yaml:"default_confidence_threshold"`
	ConfidenceStep             float64 `json:"confidence_step" yaml:"confidence_step"`
	MaxConfidenceThreshold     float64 `json:"max_confidence_threshold" yaml:"max_confidence_threshold"`

	ReducedSizeMultiplier float64 `json:"reduced_size_multiplier" yaml:"reduced_size_multiplier"`
}

// DefaultConfidenceThreshold is the entry confidence bar with no degradation
const DefaultConfidenceThreshold = 0.60

// DefaultPolicy returns the default invalidation policy
func DefaultPolicy() Policy {
	return Policy{
		ExpectancyWindow:    50,
		ExpectancyMinTrades: 50,
		ExpectancyMin:       0.0,

		HighConfidenceCutoff:     0.80,
		HighConfidenceMinTrades:  20,
		HighConfidenceMinWinRate: 45.0,

		MaxConsecutiveLosses: 7,

		SharpeWindow:     50,
		SharpeMinTrades:  30,
		RollingSharpeMin: -0.5,

		MaxDrawdownPaperOnly: -0.40,

		DefaultConfidenceThreshold: DefaultConfidenceThreshold,
		ConfidenceStep:             0.05,
		MaxConfidenceThreshold:     0.90,

		ReducedSizeMultiplier: 0.5,
	}
}
