package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/onestep/internal/app/steps"
)

var (
	stepTaskType string
	stepSmaller  string
	stepDone     []string
)

var stepCmd = &cobra.Command{
	Use:   "step <goal>",
	Short: "Get one micro-step toward a goal",
	Long: `Get one micro-step toward a goal and a one-line reason it helps.

Use --done to list steps already finished and --smaller to shrink a step
that still feels too big.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr(), true)
		if err != nil {
			return err
		}

		client, err := buildLLMClient(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("initializing LLM client: %w", err)
		}
		if client == nil {
			return errNoDirectModel
		}

		svc := steps.NewService(client)
		req := steps.StepRequest{
			Goal:      strings.Join(args, " "),
			TaskType:  stepTaskType,
			Completed: stepDone,
		}

		var step *steps.Step
		if stepSmaller != "" {
			step, err = svc.Smaller(cmd.Context(), req, stepSmaller)
		} else {
			step, err = svc.Next(cmd.Context(), req)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "👉 %s\n", step.Step)
		fmt.Fprintf(out, "   why: %s\n", step.Why)
		return nil
	},
}

func init() {
	stepCmd.Flags().StringVar(&stepTaskType, "type", "", "Task type, e.g. coding, writing, chores")
	stepCmd.Flags().StringVar(&stepSmaller, "smaller", "", "Make this previous step even smaller")
	stepCmd.Flags().StringSliceVar(&stepDone, "done", nil, "Steps already completed (repeatable)")
}
