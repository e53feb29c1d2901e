package llm

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ppiankov/verifica/internal/model"
)

// SchemaName names the structured-output schema sent upstream
const SchemaName = "FactCheckResult"

const promptTemplate = `Analyze the claim using trusted sources and determine its factual rating using the categories defined below.

RATING DEFINITIONS:
- TRUE: Fully supported by credible evidence.
- FALSE: Directly contradicted by credible evidence.
- MISLEADING: Contains partial truths but omits essential context or is presented in a deceptive way.
- UNABLE_TO_VERIFY: Insufficient or inconclusive evidence is available.

RESPONSE REQUIREMENTS:
- Provide a concise summary and a detailed explanation based on trusted sources.
- For TRUE, FALSE, and MISLEADING ratings, you MUST rely on at least 2 credible citations from trusted sources. For UNABLE_TO_VERIFY this is not required.
- Use clear, neutral, and concise language suitable for general readers, so the reader understands both the result and the reasoning.

Claim: %s`

// BuildPrompt embeds the claim into the rating rubric
func BuildPrompt(claim string) string {
	return fmt.Sprintf(promptTemplate, claim)
}

// VerdictSchema returns the structured-output schema: an object with exactly
// three required string fields, rating being restricted to the four tags.
func VerdictSchema() *jsonschema.Definition {
	tags := make([]string, len(model.Ratings))
	for i, r := range model.Ratings {
		tags[i] = string(r)
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"rating":      {Type: jsonschema.String, Enum: tags},
			"summary":     {Type: jsonschema.String},
			"explanation": {Type: jsonschema.String},
		},
		Required:             []string{"rating", "summary", "explanation"},
		AdditionalProperties: false,
	}
}

// BuildRequest turns a validated claim into a provider request.
// The claim must already be non-blank and within model.MaxClaimLength.
func BuildRequest(claim string, api model.APIConfig, domains []string) Request {
	filter := make([]string, len(domains))
	copy(filter, domains)

	return Request{
		Model:            api.Model,
		Prompt:           BuildPrompt(claim),
		Temperature:      api.Temperature,
		MaxTokens:        api.MaxTokens,
		DomainFilter:     filter,
		SchemaName:       SchemaName,
		Schema:           VerdictSchema(),
		MaxTokensPerPage: api.MaxTokensPerPage,
		MaxResults:       api.MaxResults,
		NumSources:       api.NumSources,
	}
}
