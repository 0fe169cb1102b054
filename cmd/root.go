package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDefault string

// globalFlags are shared by every command
type globalFlags struct {
	dir    string // Working directory // 工作目录
	config string // Specified configuration file path // 指定要使用的配置文件路径
	json   bool   // JSON output // JSON 输出
}

var global = new(globalFlags)

var rootCmd = &cobra.Command{
	Use:   "notton",
	Short: "Notton offline-first note sync client",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpTemplate()
		cmd.Help()
	},
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&global.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&global.config, "config", "c", "", "config file")
	fs.BoolVar(&global.json, "json", false, "print JSON instead of tables")
}

func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
