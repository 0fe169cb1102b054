package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magnusfroste/notton/pkg/logger"
	"github.com/magnusfroste/notton/pkg/util"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func init() {
	var folder string

	importCmd := &cobra.Command{
		Use:   "import <dir> [--folder id]",
		Short: "Import every Markdown file under a directory as a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := markdownFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("no Markdown files found")
				return nil
			}

			return withClient(func(ctx context.Context, c *Client) error {
				var errs error
				imported := 0
				for _, path := range files {
					raw, err := os.ReadFile(path)
					if err != nil {
						errs = multierr.Append(errs, err)
						continue
					}
					doc := util.ParseMarkdownDocument(path, string(raw))
					if _, err := c.app.NoteService.Import(ctx, doc.Title, doc.Content, optionalString(folder)); err != nil {
						c.logger.Warn("import note failed", zap.String(logger.FieldPath, path), zap.Error(err))
						errs = multierr.Append(errs, err)
						continue
					}
					imported++
				}
				fmt.Printf("imported %d of %d files\n", imported, len(files))
				return errs
			})
		},
	}
	importCmd.Flags().StringVar(&folder, "folder", "", "target folder id")
	rootCmd.AddCommand(importCmd)
}

// markdownFiles 递归查找目录下的 Markdown 文件
func markdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
