package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Completion is the tagged result of a language-model call.
// It is either a StructuredCompletion or a PlainCompletion and is resolved
// once, where the model response is parsed.
type Completion interface {
	// CompletionText returns the answer text.
	CompletionText() string

	// RawResponse returns the unparsed model output.
	RawResponse() string

	completion()
}

// StructuredCompletion carries answer text plus the sources the model says it used.
type StructuredCompletion struct {
	Text string

	// SourceRefs are 1-based labels of the context chunks the model cited.
	SourceRefs []int

	Raw string
}

// CompletionText implements Completion.
func (c StructuredCompletion) CompletionText() string { return c.Text }

// RawResponse implements Completion.
func (c StructuredCompletion) RawResponse() string { return c.Raw }

func (StructuredCompletion) completion() {}

// PlainCompletion is a bare string response.
type PlainCompletion struct {
	Text string
	Raw  string
}

// CompletionText implements Completion.
func (c PlainCompletion) CompletionText() string { return c.Text }

// RawResponse implements Completion.
func (c PlainCompletion) RawResponse() string { return c.Raw }

func (PlainCompletion) completion() {}

// structuredPayload is the JSON shape a model may answer with.
type structuredPayload struct {
	Answer          *string           `json:"answer"`
	Result          *string           `json:"result"`
	Sources         []json.RawMessage `json:"sources"`
	SourceDocuments []json.RawMessage `json:"source_documents"`
}

// ParseCompletion resolves a raw model response into its variant.
// A JSON object with an "answer" (or "result") field is structured;
// anything else is plain text.
func ParseCompletion(raw string) Completion {
	trimmed := strings.TrimSpace(raw)
	body := stripCodeFence(trimmed)

	if strings.HasPrefix(body, "{") {
		var p structuredPayload
		if err := json.Unmarshal([]byte(body), &p); err == nil {
			text := ""
			switch {
			case p.Answer != nil:
				text = *p.Answer
			case p.Result != nil:
				text = *p.Result
			}
			text = strings.TrimSpace(text)
			if text != "" {
				refs := p.Sources
				if len(refs) == 0 {
					refs = p.SourceDocuments
				}
				return StructuredCompletion{
					Text:       text,
					SourceRefs: parseRefs(refs),
					Raw:        raw,
				}
			}
		}
	}

	return PlainCompletion{Text: trimmed, Raw: raw}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseRefs accepts numbers, "2" or "[2]" and skips anything else.
func parseRefs(raw []json.RawMessage) []int {
	refs := make([]int, 0, len(raw))
	for _, r := range raw {
		var n int
		if err := json.Unmarshal(r, &n); err == nil {
			refs = append(refs, n)
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			continue
		}
		s = strings.Trim(strings.TrimSpace(s), "[]")
		if n, err := strconv.Atoi(s); err == nil {
			refs = append(refs, n)
		}
	}
	return refs
}
