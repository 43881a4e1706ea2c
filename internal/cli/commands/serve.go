package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcomplete/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve completions over HTTP",
		Long: `Start an HTTP server that answers completion requests for editors and tools.

Endpoints:
  POST /api/complete  {"text": "...", "cursor": 12}  -> {"matches": [...]}
  POST /api/usage     {"text": "..."}                 count an executed statement
  POST /api/refresh                                   reload the catalog
  GET  /healthz`,
		Example: `  # Serve on the configured address
  sqlcomplete serve

  # Serve on another port
  sqlcomplete serve --listen 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(server.Config{
				Session: cc.Session,
				Addr:    cc.Cfg.Listen,
				Logger:  cc.Logger,
			})
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().String("listen", "", "Address to listen on (default 127.0.0.1:8484)")

	return cmd
}
