package llm

import "strings"

// price is USD per 1K tokens.
type price struct {
	prompt     float64
	completion float64
}

var chatPrices = map[string]price{
	"gpt-3.5-turbo-0125": {prompt: 0.0005, completion: 0.0015},
	"gpt-3.5-turbo-1106": {prompt: 0.001, completion: 0.002},
	"gpt-3.5-turbo":      {prompt: 0.0005, completion: 0.0015},
	"gpt-4o-mini":        {prompt: 0.00015, completion: 0.0006},
	"gpt-4o":             {prompt: 0.0025, completion: 0.01},
	"gpt-4-turbo":        {prompt: 0.01, completion: 0.03},
	"gpt-4":              {prompt: 0.03, completion: 0.06},
}

var embeddingPrices = map[string]float64{
	"text-embedding-ada-002": 0.0001,
	"text-embedding-3-small": 0.00002,
	"text-embedding-3-large": 0.00013,
}

// ChatCost returns the USD cost of a completion. Unknown models cost 0.
func ChatCost(model string, promptTokens, completionTokens int) float64 {
	p, ok := lookup(model)
	if !ok {
		return 0
	}
	return float64(promptTokens)/1000*p.prompt + float64(completionTokens)/1000*p.completion
}

// EmbeddingCost returns the USD cost of embedding the given number of tokens.
func EmbeddingCost(model string, tokens int) float64 {
	return float64(tokens) / 1000 * embeddingPrices[model]
}

func lookup(model string) (price, bool) {
	if p, ok := chatPrices[model]; ok {
		return p, true
	}
	// dated snapshots such as gpt-4o-2024-08-06 fall back to their family
	best := ""
	for name := range chatPrices {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return price{}, false
	}
	return chatPrices[best], true
}
