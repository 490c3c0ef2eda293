package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBotCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Démarrer le bot Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.RunBot == nil {
				return fmt.Errorf("telegram is not configured (set telegram.token and telegram.chat_id)")
			}
			return app.RunBot(cmd.Context())
		},
	}
}

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Démarrer le serveur d'administration HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.ServeOps == nil {
				return fmt.Errorf("ops server is not configured")
			}
			return app.ServeOps(cmd.Context())
		},
	}
}
