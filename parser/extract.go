package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BaSui01/agentroute/types"
)

var (
	jsonFenceRe    = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")
	genericFenceRe = regexp.MustCompile("(?s)```\\s*\\n?(.*?)\\n?\\s*```")

	intentFieldRe    = regexp.MustCompile(`(?i)"?intent"?\s*[:=]\s*"?([A-Za-z0-9_\- ]+)"?`)
	confPercentRe    = regexp.MustCompile(`(?i)confidence[^0-9]{0,12}(\d{1,3})\s*%`)
	confPercentRevRe = regexp.MustCompile(`(?i)(\d{1,3})\s*%\s*confidence`)
	confDecimalRe    = regexp.MustCompile(`(?i)"?confidence"?\s*[:=]?\s*(0?\.\d+|1\.0|1|0)\b`)
	confQualityRe    = regexp.MustCompile(`(?i)\b(high|medium|moderate|low)\s+confidence|confidence\s*(?:is|:)?\s*(high|medium|moderate|low)\b`)
	qualitativeMap   = map[string]float64{"high": 0.8, "medium": 0.6, "moderate": 0.6, "low": 0.4}
)

// candidateBlocks yields inner texts that may hold the structured payload,
// most specific first: the ```json fence, any generic fence, and the first
// balanced brace region.
func candidateBlocks(raw string) []string {
	var blocks []string
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		blocks = append(blocks, m[1])
	}
	if m := genericFenceRe.FindStringSubmatch(raw); m != nil {
		blocks = append(blocks, m[1])
	}
	if b := balancedJSONObject(raw); b != "" {
		blocks = append(blocks, b)
	}
	return blocks
}

// balancedJSONObject scans for the first '{' and returns the substring up to
// its matching close brace, tracking string and escape state so braces inside
// string values do not confuse the count. Returns "" when no balanced object
// exists.
func balancedJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// parseFields performs pattern-based extraction of known field names against
// raw text that never became valid JSON. gjson handles json-ish regions;
// regular expressions cover prose statements like "Intent: pricing" or
// "85% confidence".
func parseFields(raw string) (*types.ParsedResponse, bool) {
	intent := ""
	var entities map[string]any

	if region := balancedJSONObject(raw); region != "" {
		if v := gjson.Get(region, "intent"); v.Exists() && v.String() != "" {
			intent = v.String()
		}
		if v := gjson.Get(region, "entities"); v.IsObject() {
			entities = make(map[string]any)
			v.ForEach(func(key, value gjson.Result) bool {
				entities[key.String()] = value.Value()
				return true
			})
		}
	}
	if intent == "" {
		if m := intentFieldRe.FindStringSubmatch(raw); m != nil {
			intent = strings.TrimSpace(m[1])
		}
	}
	if intent == "" {
		return nil, false
	}

	conf, found := extractConfidence(raw)
	if !found {
		conf = structuredDefaultConfidence
	}
	return &types.ParsedResponse{
		Intent:     intent,
		Confidence: conf,
		Entities:   entities,
	}, true
}

// extractConfidence recovers a confidence score from free text. Strategies,
// in order: percentage ("confidence: 85%"), decimal ("confidence 0.85"),
// qualitative ("high confidence").
func extractConfidence(raw string) (float64, bool) {
	if m := confPercentRe.FindStringSubmatch(raw); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			return clamp01(float64(pct) / 100), true
		}
	}
	if m := confPercentRevRe.FindStringSubmatch(raw); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			return clamp01(float64(pct) / 100), true
		}
	}
	if m := confDecimalRe.FindStringSubmatch(raw); m != nil {
		if dec, err := strconv.ParseFloat(m[1], 64); err == nil {
			return clamp01(dec), true
		}
	}
	if m := confQualityRe.FindStringSubmatch(raw); m != nil {
		word := m[1]
		if word == "" {
			word = m[2]
		}
		if v, ok := qualitativeMap[strings.ToLower(word)]; ok {
			return v, true
		}
	}
	return 0, false
}
