package main

import (
	"os"

	"github.com/jrsteele09/readify/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if !config.New().IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Err(err).Msg("readify command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := config.New()
	a := &app{}

	root := &cobra.Command{
		Use:           "readify",
		Short:         "Terminal client for the Readify book platform",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			return a.enter(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", c.GetAPIBaseURL(), "Readify API base URL")
	root.PersistentFlags().StringVar(&a.dataDir, "data", c.GetDataFolder(), "folder holding the saved session")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", c.GetAPITimeout(), "API request timeout")
	a.credentialKey = c.GetCredentialKey()
	a.mediaBase = c.GetMediaBaseURL()

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newBooksCmd(a))
	root.AddCommand(newListsCmd(a))
	root.AddCommand(newProfileCmd(a))

	return root
}
