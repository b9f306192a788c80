package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/schubergphilis/oktalib-go/pkg/okta"
)

// NewAppsCommand creates the applications command group.
func NewAppsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app", "applications"},
		Short:   "Manage applications",
		Long:    "List Okta applications and manage their group assignments",
	}

	cmd.AddCommand(newAppsListCommand())
	cmd.AddCommand(newAppsAssignmentsCommand())
	cmd.AddCommand(newAppsAssignGroupCommand())
	cmd.AddCommand(newAppsRemoveGroupCommand())

	return cmd
}

func newAppsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Label", "ID", "Status", "Sign-On Mode")
			for app, err := range client.Applications(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list applications: %w", err)
				}
				_ = table.Append(app.Label(), app.ID(), app.Status(), app.SignOnMode())
			}
			_ = table.Render()
			return nil
		},
	}
}

func appByLabelOrFail(ctx context.Context, client *okta.Client, label string) (*okta.Application, error) {
	app, err := client.ApplicationByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("application %q not found", label)
	}
	return app, nil
}

func newAppsAssignmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assignments LABEL",
		Short: "List the group assignments of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			app, err := appByLabelOrFail(ctx, client, args[0])
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Group ID", "Priority", "Created")
			for assignment, err := range app.GroupAssignments(ctx) {
				if err != nil {
					return fmt.Errorf("failed to list assignments: %w", err)
				}
				_ = table.Append(assignment.ID(),
					fmt.Sprintf("%d", assignment.Priority()),
					formatTime(assignment.CreatedAt()))
			}
			_ = table.Render()
			return nil
		},
	}
}

func newAppsAssignGroupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign-group LABEL GROUP",
		Short: "Assign a group to an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			if err := client.AssignGroupToApplication(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to assign group: %w", err)
			}
			fmt.Printf("Assigned %s to %s\n", args[1], args[0])
			return nil
		},
	}
}

func newAppsRemoveGroupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-group LABEL GROUP",
		Short: "Remove a group from an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			client, err := createClient(ctx)
			if err != nil {
				return err
			}
			if err := client.RemoveGroupFromApplication(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove group: %w", err)
			}
			fmt.Printf("Removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}
