package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozalert/check-operator/pkg/version"
)

func newVersionCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print checkctl version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(rt.writer, "checkctl "+version.String())
			return err
		},
	}
}
