package shorttermmemory

// Usage tracks token consumption for a run, mirroring the provider's
// accounting of prompt and completion tokens.
type Usage struct {
	CompletionTokens        int64
	PromptTokens            int64
	TotalTokens             int64
	CompletionTokensDetails CompletionTokensDetails
	PromptTokensDetails     PromptTokensDetails
}

// CompletionTokensDetails breaks down completion token usage.
type CompletionTokensDetails struct {
	AcceptedPredictionTokens int64
	AudioTokens              int64
	ReasoningTokens          int64
	RejectedPredictionTokens int64
}

// PromptTokensDetails breaks down prompt token usage.
type PromptTokensDetails struct {
	AudioTokens  int64
	CachedTokens int64
}

// AddUsage folds the counters from u into the receiver.
func (u *Usage) AddUsage(other *Usage) {
	u.CompletionTokens += other.CompletionTokens
	u.PromptTokens += other.PromptTokens
	u.TotalTokens += other.TotalTokens
	u.CompletionTokensDetails.AcceptedPredictionTokens += other.CompletionTokensDetails.AcceptedPredictionTokens
	u.CompletionTokensDetails.AudioTokens += other.CompletionTokensDetails.AudioTokens
	u.CompletionTokensDetails.ReasoningTokens += other.CompletionTokensDetails.ReasoningTokens
	u.CompletionTokensDetails.RejectedPredictionTokens += other.CompletionTokensDetails.RejectedPredictionTokens
	u.PromptTokensDetails.AudioTokens += other.PromptTokensDetails.AudioTokens
	u.PromptTokensDetails.CachedTokens += other.PromptTokensDetails.CachedTokens
}
