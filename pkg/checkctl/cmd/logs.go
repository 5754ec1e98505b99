package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/types"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

func newLogsCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "logs <check>",
		Short: "Print the captured output of a check's most recent run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := rt.getClient()
			if err != nil {
				return err
			}

			check := &checksv1alpha1.Check{}
			key := types.NamespacedName{Namespace: rt.namespace, Name: args[0]}
			if err := c.Get(cmd.Context(), key, check); err != nil {
				return fmt.Errorf("getting check %s: %w", key, err)
			}

			if check.Status.Logs == "" {
				fmt.Fprintf(rt.writer, "no logs captured for %s yet\n", key)
				return nil
			}
			fmt.Fprintln(rt.writer, check.Status.Logs)
			return nil
		},
	}
}
