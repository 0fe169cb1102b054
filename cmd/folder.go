package cmd

import (
	"context"
	"fmt"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/dto"
	"github.com/magnusfroste/notton/internal/service"

	"github.com/spf13/cobra"
)

func init() {
	var icon, name string

	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "List and edit folders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List folders, system views first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				list, err := c.app.FolderService.List(ctx)
				if err != nil {
					return err
				}
				return printFolders(list.Folders, list.Loading)
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name> [--icon icon]",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				f, err := c.app.FolderService.Create(ctx, service.FolderInput{Name: args[0], Icon: icon})
				if err != nil {
					return err
				}
				return printFolders([]domain.Folder{f}, false)
			})
		},
	}
	createCmd.Flags().StringVar(&icon, "icon", "", "display glyph name")

	updateCmd := &cobra.Command{
		Use:   "update <id> [--name n] [--icon i]",
		Short: "Rename a folder or change its icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.FolderPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("icon") {
				patch.Icon = &icon
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}
			return withClient(func(ctx context.Context, c *Client) error {
				f, err := c.app.FolderService.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printFolders([]domain.Folder{f}, false)
			})
		},
	}
	updateCmd.Flags().StringVar(&name, "name", "", "new name")
	updateCmd.Flags().StringVar(&icon, "icon", "", "new icon")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a folder; its notes move out of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				return c.app.FolderService.Delete(ctx, args[0])
			})
		},
	}

	folderCmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	rootCmd.AddCommand(folderCmd)
}

func printFolders(folders []domain.Folder, loading bool) error {
	if global.json {
		return printJSON(dto.FolderListDTO{Folders: dto.NewFolderDTOs(folders), Loading: loading})
	}
	rows := make([][]string, 0, len(folders))
	for _, f := range dto.NewFolderDTOs(folders) {
		rows = append(rows, []string{f.ID, f.Name, f.Icon, formatBool(f.IsSystem), formatBool(f.Pending)})
	}
	printTable([]string{"ID", "Name", "Icon", "System", "Unsynced"}, rows)
	return nil
}
