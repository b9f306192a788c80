package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/schubergphilis/oktalib-go/pkg/okta"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage users",
		Long:    "List, search, create Okta users and drive their lifecycle",
	}

	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersSearchCommand())
	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersSuspendCommand())
	cmd.AddCommand(newUsersUnsuspendCommand())
	cmd.AddCommand(newUsersGroupsCommand())

	return cmd
}

func renderUsers(users []*okta.User) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Login", "ID", "Status", "Name", "Last Login")
	for _, user := range users {
		_ = table.Append(user.Login(), user.ID(), user.Status(),
			user.FirstName()+" "+user.LastName(), formatTime(user.LastLoginAt()))
	}
	_ = table.Render()
}

func newUsersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Login", "ID", "Status", "Name", "Last Login")
			for user, err := range client.Users(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}
				_ = table.Append(user.Login(), user.ID(), user.Status(),
					user.FirstName()+" "+user.LastName(), formatTime(user.LastLoginAt()))
			}
			_ = table.Render()
			return nil
		},
	}
}

func newUsersSearchCommand() *cobra.Command {
	var byEmail bool

	cmd := &cobra.Command{
		Use:   "search VALUE",
		Short: "Search users by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			var users []*okta.User
			if byEmail {
				users, err = client.SearchUsersByEmail(ctx, args[0])
			} else {
				users, err = client.SearchUsers(ctx, args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to search users: %w", err)
			}
			renderUsers(users)
			return nil
		},
	}

	cmd.Flags().BoolVar(&byEmail, "email", false, "match on the email attribute exactly")
	return cmd
}

func newUsersCreateCommand() *cobra.Command {
	var (
		firstName string
		lastName  string
		email     string
		password  string
		activate  bool
	)

	cmd := &cobra.Command{
		Use:   "create LOGIN",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			if email == "" {
				email = args[0]
			}
			user, err := client.CreateUser(ctx, okta.CreateUserRequest{
				FirstName: firstName,
				LastName:  lastName,
				Email:     email,
				Login:     args[0],
				Password:  password,
				Activate:  activate,
			})
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Printf("Created user %s (%s), status %s\n", user.Login(), user.ID(), user.Status())
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "email (defaults to the login)")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().BoolVar(&activate, "activate", false, "activate the user on creation")
	return cmd
}

func userByLoginOrFail(ctx context.Context, client *okta.Client, login string) (*okta.User, error) {
	user, err := client.UserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", login)
	}
	return user, nil
}

func newUsersSuspendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suspend LOGIN",
		Short: "Suspend a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			user, err := userByLoginOrFail(ctx, client, args[0])
			if err != nil {
				return err
			}
			if err := user.Suspend(ctx); err != nil {
				return fmt.Errorf("failed to suspend user: %w", err)
			}
			fmt.Printf("Suspended %s\n", args[0])
			return nil
		},
	}
}

func newUsersUnsuspendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unsuspend LOGIN",
		Short: "Unsuspend a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			user, err := userByLoginOrFail(ctx, client, args[0])
			if err != nil {
				return err
			}
			if err := user.Unsuspend(ctx); err != nil {
				return fmt.Errorf("failed to unsuspend user: %w", err)
			}
			fmt.Printf("Unsuspended %s\n", args[0])
			return nil
		},
	}
}

func newUsersGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups LOGIN",
		Short: "List the groups a user belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			user, err := userByLoginOrFail(ctx, client, args[0])
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Name", "ID", "Type")
			for group, err := range user.Groups(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list groups: %w", err)
				}
				_ = table.Append(group.Name(), group.ID(), group.Type())
			}
			_ = table.Render()
			return nil
		},
	}
}
