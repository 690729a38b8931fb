// Package cmd provides the root command and CLI setup for stlrepair.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TGiles/STLRepairTool/internal/adapter"
	"github.com/TGiles/STLRepairTool/internal/controller"
	"github.com/TGiles/STLRepairTool/internal/domain"
)

var meshIO adapter.MeshIOAdapter
var fsAdapter adapter.MeshFSAdapter
var reportStore adapter.ReportStore
var ui controller.UI
var scheduler *domain.Scheduler

// verboseFlag raises the log level to debug.
var verboseFlag bool

// logFileFlag overrides the log file location.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	meshIO = adapter.NewSTLAdapter()
	fsAdapter = adapter.NewLocalMeshFSAdapter()
	reportStore = adapter.NewYAMLReportStore()
	scheduler = domain.NewScheduler(meshIO, fsAdapter, ui)
}

const rootLongDescription = `stlrepair checks STL meshes for watertightness and repairs the ones that
leak. It can process a single file or a whole directory tree, keeping a
backup of every file it rewrites.

A mesh is watertight when every edge is shared by exactly two consistently
oriented triangles, so the surface encloses a volume with no holes.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stlrepair",
		Short: "STL mesh repair tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "enable debug logging")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log", viper.GetString(logFilenameKey), "log file location")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log"), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// engineConfig collects the engine tuning keys from the active config.
func engineConfig() domain.EngineConfig {
	return domain.EngineConfig{
		MergeEpsilon:   viper.GetFloat64(mergeEpsilonKey),
		ServiceTimeout: viper.GetInt(serviceTimeoutKey),
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
