package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

var repairEngineFlag string

// repairCmd represents the repair command.
var repairCmd = newRepairCmd()

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair <input> [output]",
		Short: "Repair a single STL file",
		Long: `Repair one STL file and write the result to output, or back to the input
file when output is omitted. The original file is only replaced once the
repaired mesh has been written completely.

Requesting the windows engine on a host without the platform repair service
falls back to the local engine.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := m.Path(args[0])

			dest := source
			if len(args) == 2 {
				dest = m.Path(args[1])
			}

			engine := repairEngineFlag
			if engine == "" {
				engine = viper.GetString(engineConfigKey)
			}

			outcome := scheduler.RepairOne(cmd.Context(), m.RepairRequest{
				Source: source,
				Dest:   dest,
				Engine: engine,
			}, engineConfig())

			if outcome.Status == m.StatusFailed {
				return fmt.Errorf("repair %s: %s", source, outcome.ErrMessage)
			}

			cmd.Printf("%s repaired (engine: %s) -> %s\n", source, outcome.EngineUsed, dest)

			return nil
		},
	}

	configureRepairFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func configureRepairFlags(cmd *cobra.Command) {
	// Read directly so the batch command can bind the same config key;
	// empty falls back to run.engine at run time, after the config has
	// actually been loaded.
	cmd.Flags().StringVarP(&repairEngineFlag, engineFlagName, "e", "", "repair engine (local or windows; default from config)")
}
