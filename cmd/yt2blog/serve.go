// cmd/yt2blog/serve.go
package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(load appLoader) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if port != "" {
				application.Config().Port = port
			}
			return application.Run()
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "override PORT")
	return cmd
}
