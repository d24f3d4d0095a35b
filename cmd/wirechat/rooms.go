package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/rooms"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage the server's room directory",
}

func init() {
	roomsCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List rooms",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDirectory(func(ctx context.Context, dir *rooms.Directory) error {
					all, err := dir.List(ctx)
					if err != nil {
						return err
					}
					for _, r := range all {
						fmt.Printf("%d\t%s\n", r.ID, r.Name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a room",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDirectory(func(ctx context.Context, dir *rooms.Directory) error {
					r, err := dir.Create(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Printf("created %s (id %d)\n", r.Name, r.ID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a room",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDirectory(func(ctx context.Context, dir *rooms.Directory) error {
					if err := dir.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Printf("deleted %s\n", args[0])
					return nil
				})
			},
		},
	)
}

func withDirectory(fn func(context.Context, *rooms.Directory) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	dir := rooms.NewDirectory(cfg.APIBaseURL, auth.Header(cfg.Token))
	return fn(ctx, dir)
}
