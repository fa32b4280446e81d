package main

import (
	"github.com/spf13/cobra"

	"github.com/nulllvoid/labordash"
)

func newSnapshotCmd() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "snapshot <soc>",
		Short: "Print an occupation snapshot to the terminal",
		Example: `  labordash snapshot 15-1252
  labordash snapshot 291141 --level msa`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := labordash.ParseGeoLevel(level)
			if err != nil {
				return err
			}
			_, dash, _, err := setup()
			if err != nil {
				return err
			}

			sess, _ := dash.Session("")
			page, err := dash.Occupation(cmd.Context(), sess, labordash.ViewRequest{
				Occupation: args[0],
				Level:      geo,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(renderPage(page) + "\n"))
			return err
		},
	}
	cmd.Flags().StringVar(&level, "level", "state", "geography level: state or msa")
	return cmd
}
