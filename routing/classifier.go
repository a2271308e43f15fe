package routing

import (
	"context"
	"strings"

	"github.com/BaSui01/agentroute/types"
)

// Classifier proposes the agent best suited to answer the content. A zero
// AgentType means no opinion; the router then keeps the current agent.
type Classifier interface {
	Classify(ctx context.Context, content string) (types.AgentType, float64, error)
}

// KeywordClassifier scores content against per-agent keyword lists. It is
// deterministic and needs no model round trip, which makes it the default
// for deployments that pre-compute confidence upstream and only need a
// target proposal.
type KeywordClassifier struct {
	keywords map[types.AgentType][]string
}

// NewKeywordClassifier builds the classifier with the stock vocabulary:
// purchase and viewing language routes to the buyer agent, valuation and
// listing language to the seller agent, account trouble to support.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		keywords: map[types.AgentType][]string{
			types.AgentBuyer: {
				"price", "pricing", "buy", "buying", "afford", "mortgage",
				"pre-approved", "preapproval", "showing", "tour", "viewing",
				"bedroom", "budget", "offer", "listing",
			},
			types.AgentSeller: {
				"sell", "selling", "valuation", "appraisal", "home worth",
				"market value", "list my", "cma", "staging",
			},
			types.AgentSupport: {
				"help", "problem", "issue", "complaint", "unsubscribe",
				"billing", "human", "representative",
			},
			types.AgentLead: {
				"just looking", "more info", "newsletter", "sign up",
			},
		},
	}
}

// Classify returns the agent with the most keyword hits. Confidence grows
// with the hit count: one hit is a weak signal, three or more a strong one.
func (c *KeywordClassifier) Classify(_ context.Context, content string) (types.AgentType, float64, error) {
	lowered := strings.ToLower(content)

	var best types.AgentType
	bestHits := 0
	for agent, words := range c.keywords {
		hits := 0
		for _, word := range words {
			if strings.Contains(lowered, word) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && agent < best) {
			best = agent
			bestHits = hits
		}
	}

	if bestHits == 0 {
		return "", 0, nil
	}
	confidence := 0.5 + 0.15*float64(bestHits-1)
	if confidence > 0.95 {
		confidence = 0.95
	}
	return best, confidence, nil
}

// AskFunc resolves a prompt to a parsed model response. It matches the
// orchestrator's Ask shape without importing it, so the router package
// stays decoupled from the model call stack.
type AskFunc func(ctx context.Context, prompt, tenantID string) (*types.ParsedResponse, error)

// IntentClassifier delegates to a model call and maps the returned intent
// to an agent. Unknown intents yield no opinion rather than an error.
type IntentClassifier struct {
	ask      AskFunc
	tenantID string
	intents  map[string]types.AgentType
}

// NewIntentClassifier builds the classifier. intents maps model intent
// labels to agents; nil installs the stock mapping.
func NewIntentClassifier(ask AskFunc, tenantID string, intents map[string]types.AgentType) *IntentClassifier {
	if intents == nil {
		intents = map[string]types.AgentType{
			"buy_property":    types.AgentBuyer,
			"book_showing":    types.AgentBuyer,
			"pricing_inquiry": types.AgentBuyer,
			"sell_property":   types.AgentSeller,
			"valuation":       types.AgentSeller,
			"support_request": types.AgentSupport,
			"nurture":         types.AgentLead,
		}
	}
	return &IntentClassifier{ask: ask, tenantID: tenantID, intents: intents}
}

const classifyPromptPrefix = `Classify the following real estate message. Respond with JSON: {"intent": "...", "confidence": 0.0}. Message: `

func (c *IntentClassifier) Classify(ctx context.Context, content string) (types.AgentType, float64, error) {
	resp, err := c.ask(ctx, classifyPromptPrefix+content, c.tenantID)
	if err != nil {
		return "", 0, err
	}
	agent, ok := c.intents[resp.Intent]
	if !ok {
		return "", 0, nil
	}
	return agent, resp.Confidence, nil
}
