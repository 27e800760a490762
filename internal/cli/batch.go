package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agent-pipeline/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run each stdin line through the pipeline",
		Long:  "Reads one input per line from stdin and prints one envelope per line (JSON lines), in input order.",
		RunE:  runBatch,
	}

	cmd.Flags().StringP("type", "t", "text", "Input type for every line")
	cmd.Flags().IntP("parallel", "p", 1, "Runs in flight at once")

	RootCmd.AddCommand(cmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputType, _ := cmd.Flags().GetString("type")
	parallel, _ := cmd.Flags().GetInt("parallel")
	if parallel < 1 {
		parallel = 1
	}

	var inputs []string
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			inputs = append(inputs, line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	agent, err := buildAgent(cmd.Context(), s)
	if err != nil {
		return fmt.Errorf("build agent: %w", err)
	}

	results := make([]*model.Envelope, len(inputs))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(parallel)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = agent.ProcessInput(ctx, in, inputType)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, env := range results {
		if env.Failed() {
			failed++
		}
		b, _ := json.Marshal(env)
		fmt.Println(string(b))
	}
	logger.Info("batch complete", zap.Int("inputs", len(inputs)), zap.Int("failed", failed))
	return nil
}
