package parsing

import (
	"strings"

	"garland/internal/services/openai"
)

const systemPrompt = "You are a focused assistant that extracts personalization details from e-commerce orders. " +
	"Respond only with valid JSON matching this schema: " +
	`{"names": ["Name"], "year": "2025", "requestedProof": false, "needsManualReview": false, "notes": ""}. ` +
	"A proof is requested only when the customer explicitly asks to see a preview. " +
	"Flag manual review when instructions are unclear, conflicting, or request something outside the standard personalization (e.g., custom graphics, icons like paw prints, special fonts, or additional decorations). " +
	"If the customer specifies a name order (for example top-to-bottom, bottom-to-top, placing a name last, etc.), keep the names in that requested order instead of flagging manual review. " +
	"Names must be a clean list of individual names. Use the provided default year unless the customer clearly requests a different year."

func buildUserPrompt(req Request) string {
	sections := make([]string, 0, 3)

	personalization := strings.TrimSpace(req.PersonalizationText)
	if personalization != "" {
		sections = append(sections, "Personalization Input: "+personalization)
	} else {
		sections = append(sections, "Personalization Input: <none provided>")
	}

	if note := strings.TrimSpace(req.BuyerNote); note != "" {
		sections = append(sections, "Buyer Note: "+note)
	}

	sections = append(sections, "Default Year: "+req.DefaultYear)
	return strings.Join(sections, "\n")
}

func buildMessages(req Request) []openai.Message {
	return []openai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(req)},
	}
}
