package openai

import (
	"fmt"
	"strings"

	"github.com/sovdef/filesearch/ai"
)

const answerResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "answer": {
      "type": "string"
    },
    "citations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source": {
            "type": "string"
          },
          "snippet": {
            "type": "string"
          },
          "score": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["source", "snippet", "score"],
        "additionalProperties": false
      }
    }
  },
  "required": ["answer", "citations"],
  "additionalProperties": false
}`

const answerPromptTemplate = `Answer the user's question using ONLY the documents provided below. Return your answer as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Ground every statement in the provided documents. If the documents do not contain the answer, say so in the answer field and return an empty citations array.
- The source field of each citation must be an exact document filename from the list below.
- The snippet field must be a short verbatim excerpt supporting the answer.
- The score field rates how strongly the snippet supports the answer, from 0 (weak) to 1 (decisive).

Documents:
%s`

// buildSystemPrompt renders the grounding documents into the system prompt.
func buildSystemPrompt(storeCtx ai.StoreContext) string {
	var docs strings.Builder
	for _, doc := range storeCtx.Documents {
		fmt.Fprintf(&docs, "=== %s ===\n", doc.Name)
		for _, chunk := range doc.Chunks {
			docs.WriteString(chunk)
			docs.WriteString("\n")
		}
		docs.WriteString("\n")
	}
	return fmt.Sprintf(answerPromptTemplate, answerResponseSchema, docs.String())
}
