// Package main is the entry point for the stlrepair CLI.
package main

import "github.com/TGiles/STLRepairTool/cmd"

func main() {
	cmd.Execute()
}
