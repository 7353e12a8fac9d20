package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/naac-validator/internal/model"
	"github.com/sells-group/naac-validator/internal/registry"
)

// DefaultMaxPromptChars bounds the document text embedded in a prompt.
const DefaultMaxPromptChars = 4000

// systemPrompt is identical across requests so it is sent as a cached block.
const systemPrompt = `You are an accreditation auditor checking supporting documents for NAAC self-study reports.
You receive a database record submitted by an institution and the text extracted from the document uploaded as evidence.
Judge whether the document corroborates each field of the record. Treat OCR noise, abbreviations, honorifics, reordered names and amounts written with units (lakhs, crores) or currency symbols as acceptable variation. Treat a different project, person, agency, amount or year as a discrepancy.

Respond with ONLY valid JSON, no other text:
{
  "confidence_score": <float 0.0-1.0>,
  "field_matches": {
    "<field_name>": {"found": <true|false>, "similarity": <float 0.0-1.0>, "notes": "<short explanation>"}
  },
  "overall_assessment": "<short explanation>",
  "concerns": ["<discrepancy>"],
  "strengths": ["<supporting evidence>"],
  "recommendation": "ACCEPT" | "FLAG_FOR_REVIEW" | "REJECT"
}`

// SystemPrompt returns the fixed advisory instructions.
func SystemPrompt() string { return systemPrompt }

// BuildPrompt renders the user message for one record and document. Text
// longer than maxChars runes is cut and marked; maxChars <= 0 uses
// DefaultMaxPromptChars.
func BuildPrompt(def registry.Definition, rec model.Record, text string, maxChars int) (string, error) {
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "advisory: marshal record")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "NAAC CRITERION: %s", def.Code)
	if def.Name != "" {
		fmt.Fprintf(&b, " (%s)", def.Name)
	}
	b.WriteString("\n")
	if len(def.CriticalFields) > 0 {
		fmt.Fprintf(&b, "KEY FIELDS: %s\n", strings.Join(def.CriticalFields, ", "))
	}
	b.WriteString("\nDATABASE RECORD TO VALIDATE:\n")
	b.Write(body)
	b.WriteString("\n\nEXTRACTED DOCUMENT TEXT:\n")
	b.WriteString(Truncate(text, maxChars))
	b.WriteString("\n\nCompare the document text with the record and respond in the required JSON format.")
	return b.String(), nil
}

// Truncate cuts s to maxChars runes and appends a marker naming how much
// was dropped.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return fmt.Sprintf("%s\n[... truncated %d characters]", string(r[:maxChars]), len(r)-maxChars)
}
