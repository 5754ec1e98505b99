// Package cmd implements the checkctl command tree.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"

	checksv1alpha1 "github.com/mozalert/check-operator/api/v1alpha1"
)

// Config carries the injection points for the command tree; tests swap
// in a fake client and an in-memory writer.
type Config struct {
	OutputWriter io.Writer
	NewClient    func() (client.Client, error)
}

type runtimeState struct {
	namespace     string
	allNamespaces bool
	writer        io.Writer
	newClient     func() (client.Client, error)
	client        client.Client
}

// DefaultConfig targets the current kubeconfig context.
func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		NewClient:    newKubeClient,
	}
}

func newKubeClient() (client.Client, error) {
	restCfg, err := ctrlconfig.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("loading kubeconfig: %w", err)
	}
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := checksv1alpha1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	return client.New(restCfg, client.Options{Scheme: scheme})
}

func (rt *runtimeState) getClient() (client.Client, error) {
	if rt.client != nil {
		return rt.client, nil
	}
	c, err := rt.newClient()
	if err != nil {
		return nil, err
	}
	rt.client = c
	return c, nil
}

// NewRootCommand builds the checkctl command tree.
func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{writer: cfg.OutputWriter, newClient: cfg.NewClient}
	if rt.writer == nil {
		rt.writer = os.Stdout
	}

	root := &cobra.Command{
		Use:           "checkctl",
		Short:         "Operate mozalert checks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&rt.namespace, "namespace", "n", "default",
		"Namespace of the check")

	root.AddCommand(
		newVersionCommand(rt),
		newListCommand(rt),
		newTriggerCommand(rt),
		newLogsCommand(rt),
	)
	return root
}
