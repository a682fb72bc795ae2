package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API on the configured address (default 0.0.0.0:8000).

Endpoints:
  GET    /health
  GET    /collections
  POST   /collections                          {"name": "..."}
  PUT    /collections/{name}?new_name=...
  DELETE /collections/{name}
  POST   /collections/{name}/upload_files      multipart "files"
  POST   /collections/{name}/update_files      {"files": [...]}
  GET    /collections/{name}/pending
  GET    /collections/{name}/list_documents
  GET    /collections/{name}/files
  DELETE /collections/{name}/delete_documents  {"doc_ids": [...]}
  POST   /collections/{name}/query             {"text": "..."}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (default from settings)")
	serveCmd.Flags().IntP("port", "p", 0, "listen port (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := api.Config{
		Host: serverSettings.Host,
		Port: serverSettings.Port,
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}

	server, err := api.NewServer(&api.Ports{
		Collections: collectionService,
		Ingest:      ingestService,
		Documents:   documentService,
		Query:       queryService,
		LLMPing:     llmPing,
		StorePing:   storePing,
	}, cfg)
	if err != nil {
		return err
	}

	cmd.Printf("Serving on http://%s (Ctrl+C to stop)\n", server.Addr())
	return server.Run(cmd.Context())
}
