package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

func newListCommand(rt *runtimeState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checks and their current state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rt.getClient()
			if err != nil {
				return err
			}

			var opts []client.ListOption
			if !rt.allNamespaces {
				opts = append(opts, client.InNamespace(rt.namespace))
			}
			list := &checksv1alpha1.CheckList{}
			if err := c.List(cmd.Context(), list, opts...); err != nil {
				return fmt.Errorf("listing checks: %w", err)
			}

			w := tabwriter.NewWriter(rt.writer, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAMESPACE\tNAME\tSTATE\tATTEMPT\tLAST CHECK\tNEXT CHECK\tSTATUS")
			for _, check := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
					check.Namespace,
					check.Name,
					stateOrPending(check.Status.State),
					check.Status.Attempt,
					check.EffectiveMaxAttempts(),
					formatTime(check.Status.LastCheck),
					formatTime(check.Status.NextCheck),
					check.Status.Status,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&rt.allNamespaces, "all-namespaces", "A", false,
		"List checks across all namespaces")
	return cmd
}

func stateOrPending(state checksv1alpha1.CheckState) checksv1alpha1.CheckState {
	if state == "" {
		return checksv1alpha1.CheckStatePending
	}
	return state
}

func formatTime(t *metav1.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
