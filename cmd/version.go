package cmd

import (
	"fmt"

	"github.com/magnusfroste/notton/internal/app"
	pkgapp "github.com/magnusfroste/notton/pkg/app"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if global.json {
				return printJSON(pkgapp.VersionInfo{Version: app.Version, GitTag: app.GitTag, BuildTime: app.BuildTime})
			}
			fmt.Printf("%s v%s (Git: %s) BuildTime: %s\n", app.Name, app.Version, app.GitTag, app.BuildTime)
			return nil
		},
	})
}
