package agentroute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentroute/config"
	"github.com/BaSui01/agentroute/testutil"
	"github.com/BaSui01/agentroute/testutil/mocks"
	"github.com/BaSui01/agentroute/types"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.LLM.ProviderOrder = []string{"mock"}
	cfg.LLM.RetryBaseDelay = time.Millisecond
	cfg.Cache.EnableRedis = false
	return cfg
}

func TestNew_RouteAndAsk(t *testing.T) {
	provider := mocks.NewMockProvider("mock",
		mocks.Result{Response: `{"intent":"book_showing","confidence":0.9}`})
	engine, err := New(
		WithConfig(testConfig()),
		WithProvider(provider),
		WithClassifier(&mocks.MockClassifier{Target: types.AgentBuyer, Confidence: 0.9}),
	)
	require.NoError(t, err)
	ctx := testutil.TestContext(t)
	t.Cleanup(func() { _ = engine.Close(ctx) })

	decision, err := engine.Route(ctx, types.Task{
		ContactID:    "c1",
		Content:      "can I see the house?",
		CurrentAgent: types.AgentLead,
		Confidence:   0.9,
	})
	require.NoError(t, err)
	assert.True(t, decision.Transfer)
	assert.Equal(t, types.AgentBuyer, decision.TargetAgent)

	resp, err := engine.Ask(ctx, "When can I view 12 Oak St?", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "book_showing", resp.Intent)
	assert.Equal(t, "mock", resp.Provider)
	assert.Equal(t, 1, provider.CallCount())

	cached, err := engine.Ask(ctx, "When can I view 12 Oak St?", "tenant-1")
	require.NoError(t, err)
	assert.True(t, cached.CacheHit)
	assert.Equal(t, 1, provider.CallCount())
}

func TestNew_UnknownProviderInChain(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.ProviderOrder = []string{"watson"}

	_, err := New(WithConfig(cfg))

	require.Error(t, err)
	assert.True(t, types.IsConfiguration(err))
}

func TestNew_BuiltinProvidersResolveFromChain(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.ProviderOrder = []string{"claude", "gpt4", "gemini"}

	engine, err := New(WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(testutil.TestContext(t)) })
}

func TestNew_ModelClassifierUsesOrchestrator(t *testing.T) {
	provider := mocks.NewMockProvider("mock",
		mocks.Result{Response: `{"intent":"sell_property","confidence":0.9}`})
	engine, err := New(
		WithConfig(testConfig()),
		WithProvider(provider),
		WithModelClassifier(),
	)
	require.NoError(t, err)
	ctx := testutil.TestContext(t)
	t.Cleanup(func() { _ = engine.Close(ctx) })

	decision, err := engine.Route(ctx, types.Task{
		ContactID:       "c1",
		Content:         "I want to sell my house",
		CurrentAgent:    types.AgentLead,
		InferConfidence: true,
	})
	require.NoError(t, err)
	assert.True(t, decision.Transfer)
	assert.Equal(t, types.AgentSeller, decision.TargetAgent)
	require.Equal(t, 1, provider.CallCount())
	assert.Contains(t, provider.Calls()[0], "sell my house")
}
