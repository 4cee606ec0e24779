package main

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/mpm2d/telemetry"
)

func plotColumn(cmd *cobra.Command, args []string) error {
	data, err := telemetry.ReadColumn(args[0], column)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%s: no rows", args[0])
	}

	caption := fmt.Sprintf("%s (%d windows)", column, len(data))
	graph := asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
	fmt.Fprintln(cmd.OutOrStdout(), graph)
	return nil
}
