package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/pkg/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLoginCmd(open opener) *cobra.Command {
	var name, avatar string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Create or update the local profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			profile, err := a.repos.Profiles.Get(ctx)
			switch {
			case errors.Is(err, database.ErrNoProfile):
				profile = &models.UserProfile{ID: uuid.NewString(), Medals: []string{}}
			case err != nil:
				return err
			}
			profile.Name = name
			if avatar != "" {
				profile.Avatar = avatar
			}
			profile.IsLoggedIn = true

			if err := a.repos.Profiles.Save(ctx, profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Welcome, %s!\n", profile.Avatar, profile.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "🦊", "avatar emoji")
	return cmd
}
