package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the action menu",
		Run:   runActions,
	}

	RootCmd.AddCommand(cmd)
}

func runActions(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	agent, err := buildAgent(cmd.Context(), s)
	if err != nil {
		exitErr("build agent", err)
	}

	b, _ := json.Marshal(agent.Actions())
	fmt.Println(string(b))
}
