package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "github.com/TGiles/STLRepairTool/internal/model"
)

// checkCmd represents the check-watertight command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-watertight [path]",
		Short: "Check whether STL meshes are watertight",
		Long: `Classify an STL mesh as watertight or not. With a path argument the result
is printed as True or False. Without arguments every STL file under the
current directory is checked, one line per file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				watertight, err := scheduler.CheckFile(m.Path(args[0]))
				if err != nil {
					return fmt.Errorf("load %s: %w", args[0], err)
				}

				cmd.Println(formatWatertight(watertight))

				return nil
			}

			files, status, err := scheduler.CheckTree(".", viper.GetString(backupDirKey))
			if err != nil {
				return err
			}

			for _, file := range files {
				watertight, checked := status[file]
				if !checked {
					cmd.Printf("%s: unreadable\n", file)
					continue
				}

				cmd.Printf("%s: %s\n", file, formatWatertight(watertight))
			}

			return nil
		},
	}
}

// formatWatertight keeps the True/False output the tool has always printed.
func formatWatertight(watertight bool) string {
	if watertight {
		return "True"
	}

	return "False"
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
