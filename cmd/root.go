package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "burdy",
	Short: "content tree management tool",
	Example: `burdy create -t page -n Home -s home
burdy get -p <post-id>
burdy tree -p <post-id>
burdy rename -p <post-id> -s <new-slug>
burdy copy -p <post-id> -s <slug> -r
burdy publish -p <post-id> -r
burdy unpublish -p <post-id>
burdy versions -p <post-id>
burdy restore -p <post-id> -v <version-id>
burdy compile --path /home`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
