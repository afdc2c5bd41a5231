package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regbot/internal/adapters/driving/api"
)

var (
	serveAddr        string
	serveCORSOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP JSON API",
	Long: `Starts an HTTP server answering questions as JSON.

Endpoints:
  GET    /health             liveness and whether the index is loaded
  GET    /api/index          index manifest
  GET    /api/examples       example questions
  POST   /api/ask            {"question": "...", "session_id": "..."}
  GET    /api/sessions/:id   turns of a conversation
  DELETE /api/cache          clear cached answers

Without --cors-origin every origin is allowed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requirePipeline(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if _, err := ensureIndex(ctx, documentPath(nil)); err != nil {
		return err
	}
	startPromptWatcher(ctx)

	server, err := api.NewServer(&api.Ports{
		Ask:      services.Ask,
		Index:    services.Index,
		Sessions: services.Sessions,
	}, api.Config{AllowOrigins: serveCORSOrigins})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "regbot API listening on %s\n", serveAddr)
	return server.Run(ctx, serveAddr)
}
