package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-pipeline/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Retrieve memories containing a substring",
		Long:  "Case-sensitive substring match over memory content, most important first. Updates last_accessed on every hit.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}

	cmd.Flags().IntP("limit", "l", store.DefaultRetrieveLimit, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		exitErr("recall", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
