package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Run one input through the pipeline",
		Long:  "Perceive, remember, decide and act on a single input. Prints the result envelope.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().StringP("type", "t", "text", "Input type: text, image, audio or sensor")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	inputType, _ := cmd.Flags().GetString("type")
	input := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	agent, err := buildAgent(cmd.Context(), s)
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	env := agent.ProcessInput(cmd.Context(), input, inputType)

	b, _ := json.MarshalIndent(env, "", "  ")
	fmt.Println(string(b))
	if env.Failed() {
		return fmt.Errorf("run: %s", env.Error)
	}
	return nil
}
