package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

// answerExcerptLength is how much of each source is printed under an answer.
const answerExcerptLength = domain.BatchExcerptLength

var (
	askJSON    bool
	askNoCache bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer one question",
	Long: `Answers a question from the regulation and prints the answer, the
pages it was drawn from and how long it took.

Examples:
  regbot ask "` + strings.Join(domain.ExampleQuestions(), `"
  regbot ask "`) + `"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "clear cached answers before asking")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if _, err := ensureIndex(ctx, documentPath(nil)); err != nil {
		return err
	}

	if askNoCache {
		if err := services.Ask.ClearCache(ctx); err != nil {
			cmd.PrintErrf("Warning: could not clear cache: %v\n", err)
		}
	}

	question := strings.Join(args, " ")
	answer, _, err := services.Ask.Ask(ctx, services.Ask.NewSession(), question)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			cmd.PrintErrf("Warning: %v\n", err)
			return nil
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printAnswerJSON(cmd.OutOrStdout(), question, answer)
	}
	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}

// printAnswer writes the answer, its sources and its latency.
func printAnswer(w io.Writer, answer domain.Answer) {
	fmt.Fprintf(w, "\nResposta:\n%s\n", answer.Text)

	if len(answer.Sources) > 0 {
		fmt.Fprintln(w, "\nFontes:")
		for i, src := range answer.Sources {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, src.Locator)
			excerpt := strings.Join(strings.Fields(src.Excerpt(answerExcerptLength)), " ")
			fmt.Fprintf(w, "      %s\n", excerpt)
		}
	}

	latency := fmt.Sprintf("%.2fs", answer.Latency.Seconds())
	if answer.FromCache {
		latency += " (cache)"
	}
	fmt.Fprintf(w, "\nTempo de resposta: %s\n", latency)
}

type askOutput struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Kind      domain.AnswerKind `json:"kind"`
	FromCache bool              `json:"from_cache"`
	LatencyMS int64             `json:"latency_ms"`
	Sources   []askSourceOutput `json:"sources"`
}

type askSourceOutput struct {
	ChunkID string `json:"chunk_id"`
	Locator string `json:"locator"`
	Excerpt string `json:"excerpt"`
}

func printAnswerJSON(w io.Writer, question string, answer domain.Answer) error {
	out := askOutput{
		Question:  question,
		Answer:    answer.Text,
		Kind:      answer.Kind,
		FromCache: answer.FromCache,
		LatencyMS: answer.Latency.Milliseconds(),
		Sources:   make([]askSourceOutput, 0, len(answer.Sources)),
	}
	for _, src := range answer.Sources {
		out.Sources = append(out.Sources, askSourceOutput{
			ChunkID: src.ID,
			Locator: src.Locator.String(),
			Excerpt: src.Excerpt(answerExcerptLength),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
