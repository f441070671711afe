package cmd

import (
	"context"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getAssetCmd())
}

func getAssetCmd() *cobra.Command {
	var assetID string

	var required = []string{"asset-id"}

	command := &cobra.Command{
		Use:     "asset",
		Short:   "get an asset",
		Example: "burdy asset -a <asset-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			id, err := uuid.Parse(assetID)
			if err != nil {
				logrus.Error("invalid asset id, expected a valid uuid")
				return
			}

			e := engine()
			defer e.Close()

			asset, err := e.Store.GetAsset(context.Background(), id)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Path", "Mime Type", "Size"})
			table.Append([]string{asset.ID, asset.Name, asset.Path, asset.MimeType, strconv.FormatInt(asset.Size, 10)})
			table.Render()
		},
	}

	command.Flags().StringVarP(&assetID, "asset-id", "a", "", "asset id (required)")

	return command
}
