package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/fsutil"
)

// DefaultBatchOutput is where batch reports are written by default.
const DefaultBatchOutput = "resultados_testes.txt"

// maxQuestionsFileSize bounds the file read by batch -f.
const maxQuestionsFileSize = 1 << 20

var (
	batchFile   string
	batchOutput string
)

var batchCmd = &cobra.Command{
	Use:   "batch [questions...]",
	Short: "Answer a list of questions and write a report",
	Long: `Answers each question in turn and writes a plain-text report with
the answer, latency and 200-character source excerpts of every question.

Questions come from the arguments, or from a file with one question per
line (blank lines and lines starting with # are skipped). Without either
the built-in test questions are used.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "read questions from file, one per line")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", DefaultBatchOutput, "report file")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	if services.Batch == nil {
		return errPipelineNotConfigured
	}
	ctx := cmd.Context()

	questions, err := batchQuestions(ctx, args, batchFile)
	if err != nil {
		return err
	}

	if _, err := ensureIndex(ctx, documentPath(nil)); err != nil {
		return err
	}

	results := services.Batch.Run(ctx, questions)

	out := cmd.OutOrStdout()
	for i, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "[%d] %s\n    erro: %v\n", i+1, r.Question, r.Err)
			continue
		}
		fmt.Fprintf(out, "[%d] %s\n    %s, %.2fs, %d fontes\n",
			i+1, r.Question, r.Answer.Kind, r.Answer.Latency.Seconds(), len(r.Answer.Sources))
	}

	if err := fsutil.WriteFileAtomic(batchOutput, []byte(domain.FormatBatchReport(results)), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(out, "\n%d perguntas processadas. Resultados guardados em %s\n", len(results), batchOutput)
	return nil
}

// batchQuestions picks the questions from args, then file, then the defaults.
func batchQuestions(ctx context.Context, args []string, file string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if file == "" {
		return domain.DefaultBatchQuestions(), nil
	}

	data, err := fsutil.ReadFile(ctx, file, maxQuestionsFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}

	var questions []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s holds no questions", domain.ErrInvalidInput, file)
	}
	return questions, nil
}
