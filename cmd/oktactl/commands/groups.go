package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewGroupsCommand creates the groups command group.
func NewGroupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Manage groups",
		Long:    "List, create, delete Okta groups and manage their members",
	}

	cmd.AddCommand(newGroupsListCommand())
	cmd.AddCommand(newGroupsCreateCommand())
	cmd.AddCommand(newGroupsDeleteCommand())
	cmd.AddCommand(newGroupsMembersCommand())
	cmd.AddCommand(newGroupsAddUserCommand())
	cmd.AddCommand(newGroupsRemoveUserCommand())

	return cmd
}

func newGroupsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Name", "ID", "Type", "Description", "Created")
			for group, err := range client.Groups(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list groups: %w", err)
				}
				_ = table.Append(group.Name(), group.ID(), group.Type(),
					truncate(group.Description(), 40), formatTime(group.CreatedAt()))
			}
			_ = table.Render()
			return nil
		},
	}
}

func newGroupsCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			group, err := client.CreateGroup(ctx, args[0], description)
			if err != nil {
				return fmt.Errorf("failed to create group: %w", err)
			}
			fmt.Printf("Created group %s (%s)\n", group.Name(), group.ID())
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "group description")
	return cmd
}

func newGroupsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a group by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			if err := client.DeleteGroup(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete group: %w", err)
			}
			fmt.Printf("Deleted group %s\n", args[0])
			return nil
		},
	}
}

func newGroupsMembersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "members NAME",
		Short: "List the members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			group, err := client.GroupByName(ctx, args[0])
			if err != nil {
				return err
			}
			if group == nil {
				return fmt.Errorf("group %q not found", args[0])
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Login", "ID", "Status", "Last Login")
			for user, err := range group.Users(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list members: %w", err)
				}
				_ = table.Append(user.Login(), user.ID(), user.Status(),
					formatTime(user.LastLoginAt()))
			}
			_ = table.Render()
			return nil
		},
	}
}

func newGroupsAddUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-user GROUP LOGIN",
		Short: "Add a user to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			group, err := client.GroupByName(ctx, args[0])
			if err != nil {
				return err
			}
			if group == nil {
				return fmt.Errorf("group %q not found", args[0])
			}
			if err := group.AddUserByLogin(ctx, args[1]); err != nil {
				return fmt.Errorf("failed to add user: %w", err)
			}
			fmt.Printf("Added %s to %s\n", args[1], args[0])
			return nil
		},
	}
}

func newGroupsRemoveUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-user GROUP LOGIN",
		Short: "Remove a user from a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			group, err := client.GroupByName(ctx, args[0])
			if err != nil {
				return err
			}
			if group == nil {
				return fmt.Errorf("group %q not found", args[0])
			}
			if err := group.RemoveUserByLogin(ctx, args[1]); err != nil {
				return fmt.Errorf("failed to remove user: %w", err)
			}
			fmt.Printf("Removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}
