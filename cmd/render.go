package main

import (
	"github.com/spf13/cobra"
)

// newRenderCmd builds the single-artifact command for ar.
func newRenderCmd(ar artifact) *cobra.Command {
	return &cobra.Command{
		Use:   ar.name,
		Short: ar.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadAtlas(cfg, ar.needs)
			if err != nil {
				return err
			}
			_, err = runArtifact(cmd.Context(), a, ar)
			return err
		},
	}
}

func init() {
	for _, ar := range artifacts {
		rootCmd.AddCommand(newRenderCmd(ar))
	}
}
