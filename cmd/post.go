package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elcodo/burdy"
	"github.com/elcodo/burdy/internal/compiler"
	"github.com/elcodo/burdy/internal/config"
	"github.com/elcodo/burdy/internal/model"
	"github.com/elcodo/burdy/internal/service"
)

func init() {
	rootCmd.AddCommand(createPostCmd())
	rootCmd.AddCommand(getPostCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(renamePostCmd())
	rootCmd.AddCommand(copyPostCmd())
	rootCmd.AddCommand(deletePostCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(unpublishCmd())
	rootCmd.AddCommand(versionsCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(compileCmd())
}

func engine() *burdy.Engine {
	e, err := burdy.FromConfig(config.LoadConfig())
	if err != nil {
		logrus.Fatal(err)
	}
	return e
}

func createPostCmd() *cobra.Command {
	var postType string
	var name string
	var slug string
	var parentID string
	var content string
	var tags string
	var author string

	var required = []string{"type", "name", "slug"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a post",
		Example: "burdy create -t page -n Home -s home --parent-id <id> -c '{\"body\":\"hello\"}'",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			req := &service.CreatePostRequest{
				Type:     model.PostType(postType),
				Name:     name,
				Slug:     slug,
				AuthorID: author,
			}
			if parentID != "" {
				req.ParentID = &parentID
			}
			if content != "" {
				var tree map[string]interface{}
				if err := json.Unmarshal([]byte(content), &tree); err != nil {
					logrus.Error("invalid content, expected a json object")
					return
				}
				req.Content = tree
			}
			if tags != "" {
				req.Tags = strings.Split(tags, ",")
			}

			e := engine()
			defer e.Close()

			post, err := e.Posts.CreatePost(context.Background(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("post created with id: %s at /%s", post.ID, post.SlugPath)
		},
	}

	command.Flags().StringVarP(&postType, "type", "t", "", "post type: folder, page, fragment or post (required)")
	command.Flags().StringVarP(&name, "name", "n", "", "display name (required)")
	command.Flags().StringVarP(&slug, "slug", "s", "", "slug (required)")
	command.Flags().StringVar(&parentID, "parent-id", "", "parent post id")
	command.Flags().StringVarP(&content, "content", "c", "", "content as a json object")
	command.Flags().StringVar(&tags, "tags", "", "comma separated tag names")
	command.Flags().StringVarP(&author, "author", "a", "", "author id")

	command.Flags().SortFlags = false

	return command
}

func getPostCmd() *cobra.Command {
	var postID string
	var slugPath string

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a post",
		Example: "burdy get -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if postID == "" && slugPath == "" {
				color.Red("missing: --post-id or --path")
				return
			}

			e := engine()
			defer e.Close()

			var post *model.Post
			var err error
			if postID != "" {
				post, err = e.Posts.GetPost(context.Background(), postID)
			} else {
				post, err = e.Posts.GetPostBySlugPath(context.Background(), slugPath)
			}
			if err != nil {
				logrus.Error(err)
				return
			}

			printPosts(post)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id")
	command.Flags().StringVar(&slugPath, "path", "", "slug path")

	return command
}

func treeCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "tree",
		Short:   "list a post and its descendants",
		Example: "burdy tree -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := engine()
			defer e.Close()

			posts, err := e.Posts.Descendants(context.Background(), postID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printPosts(posts...)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func renamePostCmd() *cobra.Command {
	var postID string
	var slug string
	var author string

	var required = []string{"post-id", "slug"}

	command := &cobra.Command{
		Use:     "rename",
		Short:   "rename a post's slug, rewriting its whole subtree",
		Example: "burdy rename -p <post-id> -s <new-slug>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := engine()
			defer e.Close()

			affected, err := e.Posts.RenamePost(context.Background(), postID, slug, author)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("rewrote %d posts", affected)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVarP(&slug, "slug", "s", "", "new slug (required)")
	command.Flags().StringVarP(&author, "author", "a", "", "author id")

	return command
}

func copyPostCmd() *cobra.Command {
	var sourceID string
	var slug string
	var name string
	var parentID string
	var recursive bool
	var author string

	var required = []string{"post-id", "slug"}

	command := &cobra.Command{
		Use:     "copy",
		Short:   "copy a post, optionally with its subtree",
		Example: "burdy copy -p <post-id> -s <slug> --parent-id <id> -r",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			req := &service.CopyPostRequest{
				SourceID:  sourceID,
				Slug:      slug,
				Name:      name,
				Recursive: recursive,
				AuthorID:  author,
			}
			if parentID != "" {
				req.ParentID = &parentID
			}

			e := engine()
			defer e.Close()

			post, err := e.Posts.CopyPost(context.Background(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("copied to %s at /%s", post.ID, post.SlugPath)
		},
	}

	command.Flags().StringVarP(&sourceID, "post-id", "p", "", "source post id (required)")
	command.Flags().StringVarP(&slug, "slug", "s", "", "destination slug (required)")
	command.Flags().StringVarP(&name, "name", "n", "", "destination name, defaults to the source name")
	command.Flags().StringVar(&parentID, "parent-id", "", "destination parent id")
	command.Flags().BoolVarP(&recursive, "recursive", "r", false, "copy the whole subtree")
	command.Flags().StringVarP(&author, "author", "a", "", "author id")

	command.Flags().SortFlags = false

	return command
}

func deletePostCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a post",
		Example: "burdy delete -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := engine()
			defer e.Close()

			if err := e.Posts.DeletePost(context.Background(), postID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Info("post deleted")
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func publishCmd() *cobra.Command {
	var ids string
	var from string
	var until string
	var recursive bool

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "publish",
		Short:   "publish posts, optionally with their subtrees",
		Example: "burdy publish -p <post-id>,<post-id> --from 2026-09-01T00:00:00Z -r",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			var window service.PublishWindow
			if from != "" {
				t, err := time.Parse(time.RFC3339, from)
				if err != nil {
					logrus.Error("invalid --from, expected RFC3339")
					return
				}
				window.From = &t
			}
			if until != "" {
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					logrus.Error("invalid --until, expected RFC3339")
					return
				}
				window.Until = &t
			}

			e := engine()
			defer e.Close()

			posts, err := e.Publish.SetPublished(context.Background(), strings.Split(ids, ","), window, recursive)
			if err != nil {
				logrus.Error(err)
				return
			}

			printPosts(posts...)
		},
	}

	command.Flags().StringVarP(&ids, "post-id", "p", "", "comma separated post ids (required)")
	command.Flags().StringVar(&from, "from", "", "visible from, RFC3339")
	command.Flags().StringVar(&until, "until", "", "visible until, RFC3339")
	command.Flags().BoolVarP(&recursive, "recursive", "r", false, "publish the whole subtree")

	command.Flags().SortFlags = false

	return command
}

func unpublishCmd() *cobra.Command {
	var ids string
	var recursive bool

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "unpublish",
		Short:   "revert posts to drafts",
		Example: "burdy unpublish -p <post-id> -r",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := engine()
			defer e.Close()

			posts, err := e.Publish.SetUnpublished(context.Background(), strings.Split(ids, ","), recursive)
			if err != nil {
				logrus.Error(err)
				return
			}

			printPosts(posts...)
		},
	}

	command.Flags().StringVarP(&ids, "post-id", "p", "", "comma separated post ids (required)")
	command.Flags().BoolVarP(&recursive, "recursive", "r", false, "unpublish the whole subtree")

	return command
}

func versionsCmd() *cobra.Command {
	var postID string

	var required = []string{"post-id"}

	command := &cobra.Command{
		Use:     "versions",
		Short:   "list a post's versions, newest first",
		Example: "burdy versions -p <post-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := engine()
			defer e.Close()

			versions, err := e.Versions.ListVersions(context.Background(), postID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version ID", "Name", "Author", "Created At"})
			for _, v := range versions {
				table.Append([]string{v.ID, v.Name, v.AuthorID, v.CreatedAt.Format(time.RFC3339)})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")

	return command
}

func restoreCmd() *cobra.Command {
	var postID string
	var versionID string
	var author string

	var required = []string{"post-id", "version-id"}

	command := &cobra.Command{
		Use:     "restore",
		Short:   "restore a post from one of its versions",
		Example: "burdy restore -p <post-id> -v <version-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := engine()
			defer e.Close()

			post, err := e.Versions.Restore(context.Background(), postID, versionID, author)
			if err != nil {
				logrus.Error(err)
				return
			}

			printPosts(post)
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id (required)")
	command.Flags().StringVarP(&versionID, "version-id", "v", "", "version id (required)")
	command.Flags().StringVarP(&author, "author", "a", "", "author id")

	return command
}

func compileCmd() *cobra.Command {
	var postID string
	var slugPath string

	command := &cobra.Command{
		Use:     "compile",
		Short:   "compile a post with its references inlined",
		Example: "burdy compile --path /home",
		Run: func(cmd *cobra.Command, args []string) {
			if postID == "" && slugPath == "" {
				color.Red("missing: --post-id or --path")
				return
			}

			e := engine()
			defer e.Close()

			compiled, err := e.Compiler.Compile(context.Background(), compiler.CompileRequest{
				ID:       postID,
				SlugPath: slugPath,
			})
			if err != nil {
				logrus.Error(err)
				return
			}

			data, err := json.MarshalIndent(compiled, "", "  ")
			if err != nil {
				logrus.Error(err)
				return
			}

			fmt.Println(string(data))
		},
	}

	command.Flags().StringVarP(&postID, "post-id", "p", "", "post id")
	command.Flags().StringVar(&slugPath, "path", "", "slug path")

	return command
}

func printPosts(posts ...*model.Post) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Type", "Name", "Path", "Status"})
	for _, post := range posts {
		table.Append([]string{post.ID, string(post.Type), post.Name, "/" + post.SlugPath, string(post.Status)})
	}
	table.Render()
}

func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if cmd.Flag(required).Changed == false {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Yellow("provided: %s\n", provided)
		}

		return true
	}

	return false
}
