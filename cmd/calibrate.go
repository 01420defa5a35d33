package cmd

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wellcast/core/calibration"
)

var calibrateFile string

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Compute the band MAE from holdout residuals",
	Long: "Reads a CSV with observed and predicted columns and prints the MAE,\n" +
		"bias and empirical P10/P90 coverage. Set band.mae to the reported MAE.",
	RunE: runCalibrate,
}

func init() {
	calibrateCmd.Flags().StringVarP(&calibrateFile, "file", "f", "-", "residuals CSV, - for stdin")
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, calibrateFile)
	if err != nil {
		return err
	}
	pairs, err := calibration.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	sum, err := calibration.Summarize(pairs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
