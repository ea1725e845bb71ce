package main

import (
	"errors"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/offloadml/offloadml/internal/config"
	"github.com/offloadml/offloadml/internal/registry"
	"github.com/offloadml/offloadml/internal/telemetry"
	"github.com/offloadml/offloadml/internal/training"
)

var (
	configFileName string
	dataFile       string
	artifactsDir   string
)

var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Trains an offload classifier from collected benchmark telemetry",
	Long: `Reads the benchmark telemetry dataset, derives optimal-decision labels,
fits the feature schema, scaler and classifier, and publishes them as one
versioned artifact set that serving nodes load at startup.`,
	RunE: runTraining,
}

func runTraining(cmd *cobra.Command, args []string) error {
	config.ReadConfiguration(configFileName)

	if dataFile == "" {
		dataFile = config.GetString(config.STORAGE_DATA_FILE, "benchmark_data.csv")
	}
	if artifactsDir == "" {
		artifactsDir = config.GetString(config.ARTIFACTS_DIR, "artifacts")
	}

	store := telemetry.NewStore(dataFile)
	opts := training.OptionsFromConfig()

	result, err := training.Run(store, artifactsDir, opts)
	if err != nil {
		if errors.Is(err, training.ErrNoData) {
			log.Errorf("Nothing to train on: %v", err)
		} else if errors.Is(err, training.ErrGateRejected) {
			log.Errorf("Model discarded: %v", err)
		}
		return err
	}

	log.Infof("Published artifact set %s (%d samples: %d local, %d remote)",
		result.Version, result.Samples, result.LocalCount, result.RemoteCount)

	if config.GetBool(config.ARTIFACTS_REGISTRY_ENABLED, false) {
		if err := registry.PublishArtifactVersion(result.Version); err != nil {
			log.Warnf("Could not announce artifact version: %v", err)
		}
	}

	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFileName, "config", "c", "", "path of the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dataFile, "data", "d", "", "telemetry CSV file to train on")
	rootCmd.PersistentFlags().StringVarP(&artifactsDir, "artifacts", "a", "", "directory artifact sets are published to")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
