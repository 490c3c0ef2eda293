package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newJobsCmd exposes the scheduler jobs for manual or cron-driven runs.
func newJobsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Exécuter un job planifié",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "reminders",
			Short: "Envoyer les rappels de deadline imminente",
			RunE: func(cmd *cobra.Command, args []string) error {
				sent, err := app.Jobs.CheckDeadlineReminders(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("%d rappel(s) envoyé(s)\n", sent)
				return nil
			},
		},
		&cobra.Command{
			Use:   "recap",
			Short: "Envoyer le récap du soir",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Jobs.SendDailyRecap(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "content",
			Short: "Générer la citation et l'anecdote du jour",
			RunE: func(cmd *cobra.Command, args []string) error {
				created, err := app.Jobs.GenerateDailyContent(cmd.Context())
				if err != nil {
					return err
				}
				if created {
					fmt.Println("Contenu du jour généré.")
				} else {
					fmt.Println("Contenu du jour déjà présent.")
				}
				return nil
			},
		},
	)

	return cmd
}
