package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tie-engine/internal/isa"
)

func newISACmd() *cobra.Command {
	return &cobra.Command{
		Use:   "isa",
		Short: "Show the instruction table the simulator executes",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			table := isa.Default()

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"instructions": table.Instructions(),
				})
			}
			renderTable(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
