package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/account"
)

const superuserPasswordEnvVar = "SUPERUSER_PASSWORD"

var superuser account.NewUser

// createsuperuserCmd creates an active user with staff and superuser access
var createsuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a superuser",
	Long: `Create a superuser.

The password is read from --password or, when that is unset, from SUPERUSER_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if superuser.Password == "" {
			superuser.Password = os.Getenv(superuserPasswordEnvVar)
		}

		if superuser.Password == "" {
			return fmt.Errorf("%w: --password or %s is required", portfolio.ErrMissingData, superuserPasswordEnvVar)
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}

		users := account.NewUserService(db, nil, cfg.PhoneRegion)
		u, err := users.CreateSuperuser(cmd.Context(), superuser)
		if err != nil {
			return err
		}

		cliLogger(cfg).Info(fmt.Sprintf("superuser %s created successfully", u.Username), nil)
		return nil
	},
}

func init() {
	f := createsuperuserCmd.Flags()
	f.StringVar(&superuser.Email, "email", "", "email address of the superuser")
	f.StringVar(&superuser.Username, "username", "", "username of the superuser")
	f.StringVar(&superuser.Password, "password", "", "password of the superuser")
	f.StringVar(&superuser.FirstName, "first-name", "", "first name of the superuser")
	f.StringVar(&superuser.LastName, "last-name", "", "last name of the superuser")
	f.StringVar(&superuser.PhoneNumber, "phone", "", "phone number of the superuser")
	_ = createsuperuserCmd.MarkFlagRequired("email")
	_ = createsuperuserCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(createsuperuserCmd)
}
