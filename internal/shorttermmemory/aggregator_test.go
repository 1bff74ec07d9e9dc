package shorttermmemory

import (
	"testing"

	"github.com/agora-dev/symposium/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAggregator(t *testing.T) {
	agg := New()
	assert.NotNil(t, agg)
	assert.Equal(t, 0, agg.Len())
	assert.Equal(t, 0, agg.TurnLen())
}

func TestAggregatorAdd(t *testing.T) {
	agg := New()
	agg.AddUserPrompt(messages.New().WithSender("user").UserPrompt("hi"))
	agg.AddAssistantMessage(messages.New().WithSender("bot").AssistantMessage("hello"))
	agg.AddToolCall(messages.New().ToolCall([]messages.ToolCallData{{ID: "1", Name: "calc"}}))
	agg.AddToolResponse(messages.New().ToolResponse("1", "calc", "4"))

	assert.Equal(t, 4, agg.Len())
	assert.Equal(t, 4, agg.TurnLen())

	msgs := agg.Messages()
	_, ok := msgs[0].Payload.(messages.UserMessage)
	assert.True(t, ok)
	_, ok = msgs[3].Payload.(messages.ToolResponse)
	assert.True(t, ok)
}

func TestForkJoin(t *testing.T) {
	original := New()
	original.AddUserPrompt(messages.New().UserPrompt("one"))
	original.AddUserPrompt(messages.New().UserPrompt("two"))

	forked := original.Fork()
	assert.NotEqual(t, original.ID(), forked.ID())
	assert.Equal(t, 2, forked.Len())
	assert.Equal(t, 0, forked.TurnLen())

	original.AddUserPrompt(messages.New().UserPrompt("three"))
	forked.AddUserPrompt(messages.New().UserPrompt("four"))
	assert.Equal(t, 1, forked.TurnLen())

	original.Join(forked)
	require.Equal(t, 4, original.Len())
	last := original.Messages()[3]
	user, ok := last.Payload.(messages.UserMessage)
	require.True(t, ok)
	assert.Equal(t, "four", user.Content.Content)
}

func TestCheckpointMergeInto(t *testing.T) {
	thread := New()
	thread.AddUserPrompt(messages.New().UserPrompt("question"))

	turn := thread.Fork()
	turn.AddAssistantMessage(messages.New().AssistantMessage("answer"))
	turn.AddUsage(&Usage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12})

	cp := turn.Checkpoint()
	cp.MergeInto(thread)

	require.Equal(t, 2, thread.Len())
	assert.EqualValues(t, 12, thread.Usage().TotalTokens)
	assert.Equal(t, turn.ID(), cp.ID())
	assert.Len(t, cp.Messages(), 2)
}

func TestUsageAddUsage(t *testing.T) {
	tests := []struct {
		name     string
		initial  Usage
		add      Usage
		expected Usage
	}{
		{
			name: "basic addition",
			initial: Usage{
				CompletionTokens: 10,
				PromptTokens:     20,
				TotalTokens:      30,
				CompletionTokensDetails: CompletionTokensDetails{
					AcceptedPredictionTokens: 5,
					ReasoningTokens:          3,
				},
				PromptTokensDetails: PromptTokensDetails{CachedTokens: 19},
			},
			add: Usage{
				CompletionTokens: 15,
				PromptTokens:     25,
				TotalTokens:      40,
				CompletionTokensDetails: CompletionTokensDetails{
					AcceptedPredictionTokens: 7,
					ReasoningTokens:          5,
				},
				PromptTokensDetails: PromptTokensDetails{CachedTokens: 23},
			},
			expected: Usage{
				CompletionTokens: 25,
				PromptTokens:     45,
				TotalTokens:      70,
				CompletionTokensDetails: CompletionTokensDetails{
					AcceptedPredictionTokens: 12,
					ReasoningTokens:          8,
				},
				PromptTokensDetails: PromptTokensDetails{CachedTokens: 42},
			},
		},
		{
			name:     "zero values",
			initial:  Usage{},
			add:      Usage{CompletionTokens: 10, PromptTokens: 20, TotalTokens: 30},
			expected: Usage{CompletionTokens: 10, PromptTokens: 20, TotalTokens: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.initial
			got.AddUsage(&tt.add)
			assert.Equal(t, tt.expected, got)
		})
	}
}
