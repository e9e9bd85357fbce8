// Command admin manages staff accounts from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"charitydesk/internal/access"
	"charitydesk/internal/bootstrap"
	"charitydesk/internal/config"
	"charitydesk/internal/models"
	"charitydesk/internal/repository"
	"charitydesk/internal/service"

	"github.com/spf13/cobra"
)

// systemAdmin is the principal the CLI acts as. It has no account row, so
// self-demotion and self-deletion guards never match it.
var systemAdmin = access.Principal{Role: access.RoleAdmin, EmailVerified: true}

type openFunc func(ctx context.Context) (*service.UserService, error)

func main() {
	if err := newRootCmd(openUsers, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func openUsers(ctx context.Context) (*service.UserService, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		return nil, err
	}
	return service.NewUserService(repository.NewUserRepository(db)), nil
}

func newRootCmd(open openFunc, out io.Writer) *cobra.Command {
	var users *service.UserService

	root := &cobra.Command{
		Use:          "admin",
		Short:        "Manage CharityDesk staff accounts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			users = svc
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(&cobra.Command{
		Use:   "promote <user_id> <admin|editor|guest>",
		Short: "Assign a role to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			u, err := users.AssignRole(cmd.Context(), systemAdmin, id, args[1])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %d) is now %s\n", u.Email, u.ID, u.Role)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "demote <user_id>",
		Short: "Demote a user to guest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			u, err := users.AssignRole(cmd.Context(), systemAdmin, id, models.RoleNameGuest)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %d) is now %s\n", u.Email, u.ID, u.Role)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "verify <user_id>",
		Short: "Mark a user's email as verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			u, err := users.VerifyEmail(cmd.Context(), systemAdmin, id)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %d) verified at %s\n", u.Email, u.ID, u.EmailVerifiedAt.Format("2006-01-02 15:04"))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list-staff",
		Short: "List admins and editors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			staff, err := users.ListStaff(cmd.Context(), systemAdmin)
			if err != nil {
				return describe(err)
			}
			if len(staff) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No staff accounts found")
				return nil
			}
			for _, u := range staff {
				fmt.Fprintf(cmd.OutOrStdout(), "ID: %d | Role: %s | Email: %s | Name: %s\n", u.ID, u.Role, u.Email, u.Name)
			}
			return nil
		},
	})

	return root
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user ID %q", arg)
	}
	return uint(id), nil
}

// describe flattens field errors into one readable line.
func describe(err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err
	}
	fields := make([]string, 0, len(appErr.Fields))
	for field, msg := range appErr.Fields {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return errors.New(strings.Join(fields, "; "))
}
