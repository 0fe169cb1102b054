package cmd

import (
	"context"
	"fmt"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/dto"
	"github.com/magnusfroste/notton/internal/service"

	"github.com/spf13/cobra"
)

type noteFlags struct {
	folder    string
	search    string
	title     string
	content   string
	noFolder  bool
	permanent bool
	full      bool
}

func init() {
	nf := new(noteFlags)

	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "List and edit notes",
	}

	listCmd := &cobra.Command{
		Use:   "list [--folder all|trash|<id>] [--search query]",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				var notes []domain.Note
				var err error
				switch {
				case nf.search != "":
					notes, err = c.app.NoteService.Search(ctx, nf.search)
				case nf.folder != "":
					notes, err = c.app.NoteService.InFolder(ctx, nf.folder)
				default:
					var list service.NoteList
					list, err = c.app.NoteService.List(ctx)
					notes = list.Notes
				}
				if err != nil {
					return err
				}
				return printNotes(notes, c.app.Engine.Loading(), nf.full)
			})
		},
	}
	lfs := listCmd.Flags()
	lfs.StringVar(&nf.folder, "folder", "", "folder id, or the all / trash views")
	lfs.StringVar(&nf.search, "search", "", "fuzzy title search over live notes")
	lfs.BoolVar(&nf.full, "full", false, "include content in JSON output")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				n, err := c.app.NoteService.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if global.json {
					return printJSON(dto.NewNoteDTO(n, true))
				}
				fmt.Printf("%s\n\n%s\n", headerStyle.Render(n.Title), n.Content)
				return nil
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create [--folder id] [--title t] [--content c]",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				folder := optionalString(nf.folder)
				var n domain.Note
				var err error
				if nf.title != "" || nf.content != "" {
					n, err = c.app.NoteService.Import(ctx, nf.title, nf.content, folder)
				} else {
					n, err = c.app.NoteService.Create(ctx, folder)
				}
				if err != nil {
					return err
				}
				return printNote(n)
			})
		},
	}
	cfs := createCmd.Flags()
	cfs.StringVar(&nf.folder, "folder", "", "folder id")
	cfs.StringVar(&nf.title, "title", "", "note title")
	cfs.StringVar(&nf.content, "content", "", "note content (Markdown)")

	updateCmd := &cobra.Command{
		Use:   "update <id> [--title t] [--content c] [--folder id | --no-folder]",
		Short: "Update a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.NotePatch
			if cmd.Flags().Changed("title") {
				patch.Title = &nf.title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &nf.content
			}
			switch {
			case nf.noFolder:
				patch = patch.Merge(domain.MovePatch(nil))
			case cmd.Flags().Changed("folder"):
				patch = patch.Merge(domain.MovePatch(&nf.folder))
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}
			return withClient(func(ctx context.Context, c *Client) error {
				n, err := c.app.NoteService.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				return printNote(n)
			})
		},
	}
	ufs := updateCmd.Flags()
	ufs.StringVar(&nf.title, "title", "", "new title")
	ufs.StringVar(&nf.content, "content", "", "new content (Markdown)")
	ufs.StringVar(&nf.folder, "folder", "", "move into folder id")
	ufs.BoolVar(&nf.noFolder, "no-folder", false, "move out of every folder")

	deleteCmd := &cobra.Command{
		Use:   "delete <id> [--permanent]",
		Short: "Move a note to the trash, or delete it for good",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				if nf.permanent {
					return c.app.NoteService.PermanentDelete(ctx, args[0])
				}
				n, err := c.app.NoteService.SoftDelete(ctx, args[0])
				if err != nil {
					return err
				}
				return printNote(n)
			})
		},
	}
	deleteCmd.Flags().BoolVar(&nf.permanent, "permanent", false, "skip the trash")

	restoreCmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a note from the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *Client) error {
				n, err := c.app.NoteService.Restore(ctx, args[0])
				if err != nil {
					return err
				}
				return printNote(n)
			})
		},
	}

	noteCmd.AddCommand(listCmd, showCmd, createCmd, updateCmd, deleteCmd, restoreCmd)
	rootCmd.AddCommand(noteCmd)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printNote(n domain.Note) error {
	return printNotes([]domain.Note{n}, false, false)
}

func printNotes(notes []domain.Note, loading, full bool) error {
	if global.json {
		return printJSON(dto.NoteListDTO{Notes: dto.NewNoteDTOs(notes, full), Loading: loading})
	}
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		d := dto.NewNoteDTO(n, false)
		rows = append(rows, []string{
			d.ID, d.Title, deref(d.FolderID), formatBool(d.IsDeleted), formatBool(d.Pending), formatTime(d.UpdatedAt),
		})
	}
	printTable([]string{"ID", "Title", "Folder", "Deleted", "Unsynced", "Updated"}, rows)
	if loading {
		fmt.Println(noticeStyle.Render("still loading, showing cached notes"))
	}
	return nil
}
