package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agrosense/agrosense/pkg/ontology"
)

const mappingSystemPrompt = `You map agricultural sensor phrases to canonical sensor types.
Answer with strict JSON only: {"type": "<canonical>", "confidence": <0..1>, "reasoning": "<short>", "new_synonyms": ["<phrase>", ...]}.
Pick the single closest canonical type from the provided list. If nothing fits, use "none".`

type mappingResponse struct {
	Type        string   `json:"type"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	NewSynonyms []string `json:"new_synonyms"`
}

// mapWithLLM asks the LLM to disambiguate a phrase against the canonical
// catalog. Newly discovered synonyms are registered so the next lookup is a
// direct hit. Returns ok=false when the endpoint is unavailable or the
// answer is unusable.
func (t *Translator) mapWithLLM(ctx context.Context, phrase string, locale Language) (ontology.Match, bool) {
	if t.llm == nil {
		return ontology.Match{}, false
	}

	prompt := fmt.Sprintf("Canonical sensor types: %s\nPhrase: %q",
		strings.Join(t.registry.Types(), ", "), phrase)

	answer, err := t.llm.Chat(ctx, mappingSystemPrompt, prompt)
	if err != nil {
		slog.Warn("LLM ontology mapping unavailable", "error", err)
		return ontology.Match{}, false
	}

	var resp mappingResponse
	if err := json.Unmarshal([]byte(stripCodeFence(answer)), &resp); err != nil {
		slog.Warn("LLM ontology mapping returned malformed JSON", "answer", answer)
		return ontology.Match{}, false
	}
	if resp.Type == "" || resp.Type == "none" || !t.registry.Has(resp.Type) {
		return ontology.Match{}, false
	}

	for _, syn := range resp.NewSynonyms {
		if err := t.registry.RegisterSynonym(syn, resp.Type, string(locale)); err != nil {
			slog.Warn("Failed to register synonym", "phrase", syn, "type", resp.Type, "error", err)
		}
	}

	confidence := resp.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}
	return ontology.Match{Type: resp.Type, Mapping: ontology.MappingLLM, Confidence: confidence}, true
}

// stripCodeFence removes a markdown fence around a JSON answer, a habit some
// models cannot shake at any temperature.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
