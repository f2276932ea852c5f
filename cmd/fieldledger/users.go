package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user registrations",
	}

	cmd.AddCommand(usersRegisterCmd())
	cmd.AddCommand(usersSwitchCmd())
	cmd.AddCommand(usersListCmd())

	return cmd
}

func usersRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <user-id> <name> <company>",
		Short: "Register a user with a company",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID: %s", args[0])
			}

			reg, err := initRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			if err := reg.Register(cmd.Context(), userID, args[1], args[2]); err != nil {
				return err
			}

			fmt.Printf("Registered %s (%d) with %s\n", args[1], userID, args[2])
			return nil
		},
	}
}

func usersSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <user-id> <company>",
		Short: "Switch a user's company",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID: %s", args[0])
			}

			reg, err := initRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			if err := reg.SwitchCompany(cmd.Context(), userID, args[1]); err != nil {
				return err
			}

			fmt.Printf("User %d switched to %s\n", userID, args[1])
			return nil
		},
	}
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <company>",
		Short: "List users registered with a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := initRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			users, err := reg.ListByCompany(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER ID\tNAME\tCOMPANY\tREGISTERED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					u.UserID, u.Name, u.Company, u.RegisteredAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
