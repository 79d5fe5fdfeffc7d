package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bitfantasy/rmqc/internal/config"
	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// 批次结论对应的退出码
const (
	exitAccepted = 0
	exitRejected = 2
	exitPending  = 3
)

var (
	evalFile   string
	evalFormat string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Judge a lot described in a YAML or JSON file",
	Long: `Evaluate reads a lot (product model plus per-heat raw entries) and prints
the heat and lot disposition. The exit code carries the lot verdict:
0 accepted, 2 rejected, 3 pending.`,
	Example: `  rmqc evaluate -f lot.yaml
  cat lot.yaml | rmqc evaluate -f - --format yaml`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalFile, "file", "f", "", "Lot file (YAML or JSON), - for stdin")
	evaluateCmd.Flags().StringVar(&evalFormat, "format", "json", "Output format: json, yaml")
	evaluateCmd.MarkFlagRequired("file")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	eng, err := cfg.Inspection.NewEngine()
	if err != nil {
		return fmt.Errorf("invalid inspection config: %w", err)
	}

	var r io.Reader = cmd.InOrStdin()
	if evalFile != "-" {
		f, err := os.Open(evalFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	lot, err := loadLot(r)
	if err != nil {
		return err
	}

	ev, err := eng.EvaluateLot(lot)
	if err != nil {
		return err
	}
	if err := writeEvaluation(cmd.OutOrStdout(), ev, evalFormat); err != nil {
		return err
	}
	exitCode = verdictExitCode(ev.LotStatus)
	return nil
}

// loadLot YAML 是 JSON 的超集，两种文件都按 YAML 解析
func loadLot(r io.Reader) (engine.LotInput, error) {
	var lot engine.LotInput
	data, err := io.ReadAll(r)
	if err != nil {
		return lot, err
	}
	if err := yaml.Unmarshal(data, &lot); err != nil {
		return lot, fmt.Errorf("parse lot: %w", err)
	}
	if lot.ProductModel == "" {
		return lot, fmt.Errorf("parse lot: product_model is required")
	}
	return lot, nil
}

func writeEvaluation(w io.Writer, ev engine.LotEvaluation, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	case "yaml":
		// 经 JSON 中转，沿用 json 标签作为字段名
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func verdictExitCode(v engine.Verdict) int {
	switch v {
	case engine.VerdictAccepted:
		return exitAccepted
	case engine.VerdictRejected:
		return exitRejected
	default:
		return exitPending
	}
}
