package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skryldev/postboard/fixture"
)

func newFixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Work with the users.json and posts.json fixtures",
	}

	var (
		users, posts int
		out          string
		seed         int64
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a random but valid fixture pair",
		Long: `Writes users.json and posts.json with random names, emails and text.
Every post belongs to one of the generated users. The same --seed always
produces the same files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			set, err := fixture.Generate(users, posts, seed)
			if err != nil {
				return err
			}
			if err := fixture.Write(out, set); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d users and %d posts to %s (seed %d)\n",
				len(set.Users), len(set.Posts), out, seed)
			return nil
		},
	}
	generate.Flags().IntVar(&users, "users", 10, "Number of users")
	generate.Flags().IntVar(&posts, "posts", 100, "Number of posts")
	generate.Flags().StringVar(&out, "out", "./seed-data", "Output directory")
	generate.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: current time)")

	cmd.AddCommand(generate)
	return cmd
}
