package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/amarchal/majordome/internal/cli/formatter"
)

func newPlanCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Suggérer l'ordre de travail du jour",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.Planner.SuggestDailyPriorities(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatPlan(plan))
			return nil
		},
	}
}

func newFocusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "focus",
		Short: "Afficher la priorité du moment",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Router.HandleMessage(cmd.Context(), localChatID, "focus")
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatOutcome(out))
			return nil
		},
	}
}

func newDecomposeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "decompose <id>",
		Short: "Découper une tâche en sous-tâches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			d, err := app.Planner.DecomposeTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatDecomposition(d))
			return nil
		},
	}
}

func newReviewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Générer le bilan de la semaine",
		RunE: func(cmd *cobra.Command, args []string) error {
			review, err := app.Planner.GenerateWeeklyReview(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s\n%s\n", formatter.Header("Bilan "+review.Week), review.Review)
			return nil
		},
	}
}
