package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dianctl",
		Short: "Maintenance tools for the DIAN document pipeline",
		Long: `dianctl loads catalog tables, checks municipality codes against the DANE
registry and tokenizes legacy exports without submitting them.

Database and Redis settings are read from the same environment variables
(or .env file) as the service.`,
		SilenceUsage: true,
	}

	root.AddCommand(newCatalogCmd(), newTokenizeCmd())
	return root
}
