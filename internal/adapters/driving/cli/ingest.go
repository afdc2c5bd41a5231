package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

var ingestRebuild bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Build or load the vector index",
	Long: `Loads the persisted vector index, or builds it from the document when
none exists or it holds no chunks.

The path defaults to the document.path setting. With --rebuild the
persisted index is always destroyed and rebuilt from the document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "destroy and rebuild the persisted index")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}

	path := documentPath(args)
	report, err := services.Index.Ingest(cmd.Context(), path, domain.IngestOptions{Rebuild: ingestRebuild})
	if err != nil {
		return ingestError(err)
	}

	printIngestReport(cmd, path, report)
	return nil
}

func printIngestReport(cmd *cobra.Command, path string, report *domain.IngestReport) {
	m := report.Manifest
	out := cmd.OutOrStdout()

	if report.Action == domain.IngestActionBuilt {
		fmt.Fprintf(out, "Index built from %s: %d chunks embedded\n", path, report.Embedded)
	} else {
		fmt.Fprintf(out, "Index loaded: %d chunks\n", m.ChunkCount)
	}
	fmt.Fprintf(out, "  Reason:    %s\n", report.Reason)
	fmt.Fprintf(out, "  Model:     %s (%d dimensions)\n", m.EmbeddingModel, m.Dimensions)
	fmt.Fprintf(out, "  Chunking:  size %d, overlap %d\n", m.ChunkSize, m.Overlap)
	if m.SourceURI != "" {
		fmt.Fprintf(out, "  Source:    %s\n", m.SourceURI)
	}
	if !m.BuiltAt.IsZero() {
		fmt.Fprintf(out, "  Built at:  %s\n", m.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(out, "  Took:      %s\n", report.Duration.Round(time.Millisecond))
}
