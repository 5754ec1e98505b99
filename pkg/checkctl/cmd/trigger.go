package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/types"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

func newTriggerCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <check>",
		Short: "Force an immediate run of a check",
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

			if check.Annotations == nil {
				check.Annotations = map[string]string{}
			}
			stamp := time.Now().UTC().Format(time.RFC3339)
			check.Annotations[checksv1alpha1.TriggerAnnotation] = stamp
			if err := c.Update(cmd.Context(), check); err != nil {
				return fmt.Errorf("annotating check %s: %w", key, err)
			}

			fmt.Fprintf(rt.writer, "check %s triggered at %s\n", key, stamp)
			return nil
		},
	}
}
