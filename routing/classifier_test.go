package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentroute/types"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		want    types.AgentType
	}{
		{"pricing routes to buyer", "What is the price of the downtown condo?", types.AgentBuyer},
		{"showing routes to buyer", "Can I book a showing this weekend?", types.AgentBuyer},
		{"valuation routes to seller", "I want a valuation, thinking of selling my place", types.AgentSeller},
		{"complaint routes to support", "I have a problem with my account, need help", types.AgentSupport},
		{"browsing routes to lead", "just looking around for now, maybe more info later", types.AgentLead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent, confidence, err := c.Classify(ctx, tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, agent)
			assert.GreaterOrEqual(t, confidence, 0.5)
		})
	}
}

func TestKeywordClassifier_NoMatchHasNoOpinion(t *testing.T) {
	agent, confidence, err := NewKeywordClassifier().Classify(context.Background(), "ok thanks")

	require.NoError(t, err)
	assert.Equal(t, types.AgentType(""), agent)
	assert.Zero(t, confidence)
}

func TestKeywordClassifier_MoreHitsMoreConfidence(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	_, weak, err := c.Classify(ctx, "what's the price?")
	require.NoError(t, err)
	_, strong, err := c.Classify(ctx, "what's the price? my budget needs a mortgage and I'd like a showing")
	require.NoError(t, err)

	assert.Greater(t, strong, weak)
	assert.LessOrEqual(t, strong, 0.95)
}

func TestIntentClassifier_MapsIntentToAgent(t *testing.T) {
	ask := func(_ context.Context, prompt, tenantID string) (*types.ParsedResponse, error) {
		assert.Contains(t, prompt, "sell my house")
		assert.Equal(t, "t1", tenantID)
		return &types.ParsedResponse{Intent: "sell_property", Confidence: 0.88}, nil
	}

	c := NewIntentClassifier(ask, "t1", nil)
	agent, confidence, err := c.Classify(context.Background(), "I'd like to sell my house")

	require.NoError(t, err)
	assert.Equal(t, types.AgentSeller, agent)
	assert.Equal(t, 0.88, confidence)
}

func TestIntentClassifier_UnknownIntentHasNoOpinion(t *testing.T) {
	ask := func(context.Context, string, string) (*types.ParsedResponse, error) {
		return &types.ParsedResponse{Intent: types.IntentUnknown, Confidence: 0}, nil
	}

	agent, _, err := NewIntentClassifier(ask, "t1", nil).Classify(context.Background(), "??")

	require.NoError(t, err)
	assert.Equal(t, types.AgentType(""), agent)
}

func TestIntentClassifier_PropagatesAskError(t *testing.T) {
	wantErr := errors.New("all providers exhausted")
	ask := func(context.Context, string, string) (*types.ParsedResponse, error) {
		return nil, wantErr
	}

	_, _, err := NewIntentClassifier(ask, "t1", nil).Classify(context.Background(), "hi")

	assert.ErrorIs(t, err, wantErr)
}
