package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/settlerhq/settler/internal/model"
	"github.com/settlerhq/settler/internal/pipeline"
)

var (
	checkMarketID string
	checkCriteria string
	checkDeadline string
	checkUnit     string
	checkMin      float64
	checkMax      float64
	checkKeywords []string
	checkTimeout  time.Duration
	checkNoLLM    bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <question>",
	Short: "Run one outcome check and print the verdict",
	Long: `Check collects news evidence for a single market question, aggregates
the extracted values into an outcome index, and prints the verdict as JSON.

Example:
  settler check "Will voter turnout exceed 60%?" --unit percent
  settler check "Will BTC close above $100k?" --unit currency --domain-max 200000
  settler check "Will July CPI exceed 3%?" --keywords cpi,inflation --no-llm`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkMarketID, "market-id", "", "market id for query disambiguation")
	checkCmd.Flags().StringVar(&checkCriteria, "criteria", "", "resolution criteria text")
	checkCmd.Flags().StringVar(&checkDeadline, "deadline", "", "resolution deadline (RFC 3339)")
	checkCmd.Flags().StringVar(&checkUnit, "unit", "", "value unit (currency, percent, temperature, generic)")
	checkCmd.Flags().Float64Var(&checkMin, "domain-min", 0, "domain lower bound")
	checkCmd.Flags().Float64Var(&checkMax, "domain-max", 0, "domain upper bound (0 = use unit default)")
	checkCmd.Flags().StringSliceVar(&checkKeywords, "keywords", nil, "extra keywords, comma-separated")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&checkNoLLM, "no-llm", false, "skip LLM corroboration even if a key is configured")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkNoLLM {
		cfg.LLM.APIKey = ""
	}

	req := model.OutcomeRequest{
		MarketID:           checkMarketID,
		Question:           args[0],
		ResolutionCriteria: checkCriteria,
		Unit:               model.ParseUnit(checkUnit),
	}
	if checkDeadline != "" {
		deadline, err := time.Parse(time.RFC3339, checkDeadline)
		if err != nil {
			return fmt.Errorf("parsing --deadline: %w", err)
		}
		req.ResolutionDeadline = &deadline
	}
	if checkMax > checkMin && checkMax != 0 {
		req.Domain = &model.ValueDomain{Min: checkMin, Max: checkMax}
	}
	if len(checkKeywords) > 0 {
		req.Options = []model.OutcomeOption{{
			ID:       "yes",
			Label:    "Yes",
			Keywords: checkKeywords,
		}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", req.Question)
		if len(checkKeywords) > 0 {
			fmt.Fprintf(os.Stderr, "Keywords: %s\n", strings.Join(checkKeywords, ", "))
		}
		fmt.Fprintln(os.Stderr)
	}

	checker := pipeline.FromConfig(cfg, newLogger())
	verdict, err := checker.CheckOutcome(ctx, req)
	if err != nil {
		return fmt.Errorf("checking outcome: %w", err)
	}

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding verdict: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
