package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TGiles/STLRepairTool/internal/adapter"
	"github.com/TGiles/STLRepairTool/internal/domain"
	m "github.com/TGiles/STLRepairTool/internal/model"
)

var batchEngineFlag string
var batchWorkersFlag int
var batchNoBackupFlag bool
var batchReportFlag string

// batchCmd represents the batch command.
var batchCmd = newBatchCmd()

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [root]",
		Short: "Check and repair every STL file under a directory",
		Long: `Walk root (default: current directory) for STL files, skip the ones that
are already watertight, and repair the rest in place. Files are backed up
under the backup directory before being rewritten unless --no-backup is set.

Unlike single-file repair, batch refuses to start when the requested engine
is not available on this host.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := m.Path(".")
			if len(args) == 1 {
				root = m.Path(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine := viper.GetString(engineConfigKey)
			workers := viper.GetInt(workersConfigKey)

			state, outcomes, err := scheduler.Run(ctx, domain.BatchArgs{
				Root:      root,
				Engine:    engine,
				Workers:   workers,
				Backup:    viper.GetBool(backupEnabledKey) && !batchNoBackupFlag,
				BackupDir: viper.GetString(backupDirKey),
				Config:    engineConfig(),
			})
			if err != nil {
				return err
			}

			if reportPath := viper.GetString(reportPathKey); reportPath != "" {
				report := adapter.BatchReport{
					Engine:   engine,
					Workers:  workers,
					Summary:  state,
					Outcomes: outcomes,
				}

				if err := reportStore.SaveReport(m.Path(reportPath), report); err != nil {
					return err
				}
			}

			if state.Cancelled {
				return fmt.Errorf("cancelled after %d of %d file(s)", state.Completed, state.Discovered)
			}

			if state.Failed > 0 {
				return fmt.Errorf("%d file(s) could not be repaired", state.Failed)
			}

			return nil
		},
	}

	configureBatchFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func configureBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&batchEngineFlag, engineFlagName, "e", viper.GetString(engineConfigKey), "repair engine (local or windows)")
	bindFlagToConfig(cmd.Flags().Lookup(engineFlagName), engineConfigKey)

	cmd.Flags().IntVarP(&batchWorkersFlag, workersFlagName, "w", viper.GetInt(workersConfigKey), "number of parallel workers (0 = auto)")
	bindFlagToConfig(cmd.Flags().Lookup(workersFlagName), workersConfigKey)

	// Resolved against backup.enabled at run time: flag defaults are
	// computed while this package initializes, before the viper defaults
	// in config.go exist.
	cmd.Flags().BoolVar(&batchNoBackupFlag, noBackupFlagName, false, "repair in place without keeping backups")

	cmd.Flags().StringVarP(&batchReportFlag, reportFlagName, "r", viper.GetString(reportPathKey), "write a YAML batch report to this file")
	bindFlagToConfig(cmd.Flags().Lookup(reportFlagName), reportPathKey)
}
