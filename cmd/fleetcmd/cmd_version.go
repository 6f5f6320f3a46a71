package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetcmd/fleetcmd/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fleetcmd %s\n", version.Info())
		},
	}
}
