package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wellcast/app"
	"github.com/kilianp07/wellcast/config"
	"github.com/kilianp07/wellcast/core/prediction"
)

var (
	predictFile     string
	predictBaseline bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast a single well from a JSON payload",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictFile, "file", "f", "-", "well payload (JSON), - for stdin")
	predictCmd.Flags().BoolVar(&predictBaseline, "baseline", false, "use the baseline estimator instead of the remote predictor")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, predictFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// One-shot runs do not publish or persist anything.
	cfg.Publisher.Enabled = false
	cfg.Metrics.Sinks = nil
	cfg.Logging = config.PredictionLogConfig{}
	cfg.Logging.SetDefaults()
	if predictBaseline {
		cfg.Predictor.Mode = prediction.ModeBaseline
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out, err := svc.Predictions.Predict(context.Background(), raw)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if out.Raw != nil {
		return enc.Encode(out.Raw)
	}
	return enc.Encode(out.Result)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
