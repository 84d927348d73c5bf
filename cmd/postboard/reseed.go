package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Skryldev/postboard/reseed"
)

func newReseedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reseed",
		Short: "Upsert users.json and posts.json into the store",
		Long: `Reads users.json and posts.json from the fixtures directory and upserts
every user, then every post. Rows not present in the files are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			database, err := openDB(cfg, nil)
			if err != nil {
				return err
			}
			defer database.Close()

			counts, err := reseed.New(database, cfg.FixturesDir, nil).Run(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users: %s  posts: %s\n",
				humanize.Comma(counts.UserCount), humanize.Comma(counts.PostCount))
			return nil
		},
	}
}
