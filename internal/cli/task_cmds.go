package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/cli/formatter"
)

func newAddCmd(app *App) *cobra.Command {
	var category, priority string
	var force bool

	cmd := &cobra.Command{
		Use:   "add [texte...]",
		Short: "Ajouter une tâche",
		Long: `Analyse le texte et crée une tâche enrichie (guide, estimation,
deadline suggérée). Avec --force, crée directement sans analyse.
Sans argument dans un terminal, ouvre un formulaire interactif.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" {
				if app.IsInteractive == nil || !app.IsInteractive() {
					return fmt.Errorf("task text is required")
				}
				var err error
				text, err = runAddWizard()
				if err != nil {
					return err
				}
				force = true
			}

			if category != "" {
				text = category + " " + text
			}
			if priority != "" {
				text = priority + " " + text
			}

			out, err := addTask(cmd.Context(), app, text, force)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Créer sans analyse LLM")
	cmd.Flags().StringVar(&category, "category", "", "Catégorie (easynode, immobilier, content, personnel, admin, general)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priorité (urgent, important, normal)")

	return cmd
}

func addTask(ctx context.Context, app *App, text string, force bool) (*assistant.Outcome, error) {
	if force {
		return app.Router.ForceAddTask(ctx, text)
	}
	// The analyzer path goes through the router so that a clarification
	// round-trip behaves exactly like chat.
	return app.Router.HandleMessage(ctx, localChatID, "ajoute "+text)
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lister les tâches en attente",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "liste")
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id ou titre>",
		Short: "Terminer une tâche",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "fait "+strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Afficher les statistiques",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "stats")
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}
