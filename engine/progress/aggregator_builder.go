package progress

// AggregatorBuilderOption is a functional option for configuring an Aggregator via NewAggregator.
type AggregatorBuilderOption func(*aggregator)

// WithOnProgress sets the callback invoked with the aggregate percentage after every event.
// The callback runs while the aggregator is locked and must not call back into it.
//
// Parameters:
//   - fn: the progress callback
//
// Returns:
//   - AggregatorBuilderOption: functional option to set the callback
func WithOnProgress(fn func(percentage float64)) AggregatorBuilderOption {
	return func(a *aggregator) {
		a.onProgress = fn
	}
}
