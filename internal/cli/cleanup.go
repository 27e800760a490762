package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete memories older than the retention window",
		Run:   runCleanup,
	}

	cmd.Flags().Int("days", 0, "Retention window in days (default: retention_days from config)")

	RootCmd.AddCommand(cmd)
}

func runCleanup(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")
	if !cmd.Flags().Changed("days") {
		days = cfg.RetentionDays
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	deleted, err := s.Cleanup(cmd.Context(), days)
	if err != nil {
		exitErr("cleanup", err)
	}

	fmt.Printf(`{"ok":true,"deleted":%d,"days":%d}`+"\n", deleted, days)
}
