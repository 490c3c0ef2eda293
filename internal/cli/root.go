package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/planner"
)

// localChatID is the conversation key for the local terminal. The router
// keys pending clarifications by chat; the CLI is always chat zero.
const localChatID int64 = 0

// Messenger is the router surface the CLI drives.
type Messenger interface {
	HandleMessage(ctx context.Context, chatID int64, text string) (*assistant.Outcome, error)
	ForceAddTask(ctx context.Context, text string) (*assistant.Outcome, error)
}

// PlannerService covers the planning commands that bypass classification.
type PlannerService interface {
	SuggestDailyPriorities(ctx context.Context) (*planner.DailyPlan, error)
	DecomposeTask(ctx context.Context, taskID int64) (*planner.Decomposition, error)
	GenerateWeeklyReview(ctx context.Context) (*planner.WeeklyReview, error)
}

// JobRunner covers the scheduler jobs exposed for manual runs.
type JobRunner interface {
	CheckDeadlineReminders(ctx context.Context) (int, error)
	SendDailyRecap(ctx context.Context) error
	GenerateDailyContent(ctx context.Context) (bool, error)
}

// App holds references to the service surfaces used by CLI commands.
type App struct {
	Router  Messenger
	Planner PlannerService
	Jobs    JobRunner

	// RunBot and ServeOps are long-running entrypoints wired by main.
	// Either may be nil when its backend is not configured.
	RunBot   func(ctx context.Context) error
	ServeOps func(ctx context.Context) error

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "majordome" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "majordome",
		Short: "Assistant personnel: tâches, briefings et planification",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
	}
	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		newBriefingCmd(app),
		newEmailsCmd(app),
		newAddCmd(app),
		newListCmd(app),
		newDoneCmd(app),
		newStatsCmd(app),
		newEventCmd(app),
		newContentCmd(app),
		newPlanCmd(app),
		newFocusCmd(app),
		newDecomposeCmd(app),
		newReviewCmd(app),
		newChatCmd(app),
		newJobsCmd(app),
		newBotCmd(app),
		newServeCmd(app),
	)

	return root
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolP("verbose", "v", false, "Afficher les logs détaillés")
}
