package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/server"
	"github.com/spf13/cobra"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}
	cmd.AddCommand(newProfileShowCmd(a))
	cmd.AddCommand(newProfileUpdateCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show your profile",
		Annotations: route(server.RouteProfile),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := a.client().Profile(cmd.Context())
			if err != nil {
				return fmt.Errorf("load profile: %w", err)
			}
			writeProfile(a, profile)
			return nil
		},
	}
}

func newProfileUpdateCmd(a *app) *cobra.Command {
	var (
		update    api.ProfileUpdate
		imagePath string
	)
	cmd := &cobra.Command{
		Use:         "update",
		Short:       "Replace your profile details",
		Annotations: route(server.RouteProfile),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if imagePath != "" {
				file, err := os.Open(imagePath)
				if err != nil {
					return err
				}
				defer file.Close()
				update.Image = &api.Upload{Filename: filepath.Base(imagePath), Content: file}
			}

			profile, err := a.client().UpdateProfile(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("update profile: %s", api.Detail(err, "Failed to update profile"))
			}
			a.printf("Profile Updated\n")
			writeProfile(a, profile)
			return nil
		},
	}
	cmd.Flags().StringVar(&update.FullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&update.Bio, "bio", "", "short biography")
	cmd.Flags().StringVar(&imagePath, "image", "", "new profile picture")
	cmd.Flags().BoolVar(&update.ClearImage, "remove-image", false, "remove the current profile picture")
	cmd.MarkFlagsMutuallyExclusive("image", "remove-image")
	return cmd
}

func writeProfile(a *app, p api.Profile) {
	name := p.FullName
	if name == "" {
		name = a.store.Identity().DisplayName()
	}
	a.printf("%s <%s>\n", name, a.store.Identity().Email)
	if p.Bio != "" {
		a.printf("%s\n", p.Bio)
	}
	if img := api.MediaURL(a.mediaBase, p.Image); img != "" {
		a.printf("Picture: %s\n", img)
	}
}
