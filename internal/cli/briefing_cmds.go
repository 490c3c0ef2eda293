package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amarchal/majordome/internal/cli/formatter"
)

func newBriefingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "briefing",
		Short: "Générer le briefing du jour",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "briefing")
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}

func newEmailsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "emails",
		Short: "Résumer les emails récents",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "emails")
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}

func newEventCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "event <description...>",
		Short: "Créer un événement calendrier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "planifie "+strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}

func newContentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "content <sujet...>",
		Short: "Générer tweet et post LinkedIn",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "content "+strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}
