package domain

import (
	"fmt"
	"strings"
)

// BatchExcerptLength is how much of each source is written to a batch report.
const BatchExcerptLength = 200

// BatchResult is the outcome of one question in a batch run.
type BatchResult struct {
	Question string
	Answer   Answer

	// Err is set when the question was rejected before any work.
	Err error
}

// FormatBatchReport renders batch results in the plain-text report format.
func FormatBatchReport(results []BatchResult) string {
	var b strings.Builder
	b.WriteString("=== RESULTADOS DOS TESTES ===\n\n")

	for i, r := range results {
		fmt.Fprintf(&b, "Pergunta %d: %s\n", i+1, r.Question)
		if r.Err != nil {
			fmt.Fprintf(&b, "Erro: %v\n\n---\n\n", r.Err)
			continue
		}
		fmt.Fprintf(&b, "Tempo de resposta: %.2f segundos\n", r.Answer.Latency.Seconds())
		if r.Answer.FromCache {
			b.WriteString("(resposta em cache)\n")
		}
		fmt.Fprintf(&b, "Resposta:\n%s\n\n", r.Answer.Text)

		if len(r.Answer.Sources) > 0 {
			b.WriteString("Documentos fonte utilizados:\n")
			for j, src := range r.Answer.Sources {
				fmt.Fprintf(&b, "Documento %d (%s): %s\n\n", j+1, src.Locator, src.Excerpt(BatchExcerptLength))
			}
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}
