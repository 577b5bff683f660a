package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/palmvec"
	"github.com/hupe1980/palmvec/gallery"
	"github.com/hupe1980/palmvec/match"
	"github.com/spf13/cobra"
)

func galleryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Work with exported gallery snapshots",
	}
	cmd.AddCommand(
		galleryIdentifyCmd(a),
		galleryListCmd(a),
		galleryRemoveCmd(a),
		galleryPruneCmd(a),
	)
	return cmd
}

func galleryIdentifyCmd(a *app) *cobra.Command {
	var byHash bool
	cmd := &cobra.Command{
		Use:   "identify [INPUT|-]",
		Short: "Identify a palm against the current snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, 0)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.openGalleryStore(ctx)
			if err != nil {
				return err
			}
			g, err := store.Latest(ctx)
			if err != nil {
				return err
			}

			var id palmvec.Identification
			if byHash {
				id, err = a.engine.IdentifyByHash(ctx, g, func(_ context.Context, h string) ([]match.Candidate, error) {
					return g.CandidatesByHash(h), nil
				}, in)
			} else {
				id, err = a.engine.Identify(ctx, g, in)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, id)
		},
	}
	cmd.Flags().BoolVar(&byHash, "by-hash", false, "Scan candidates with the same sampled hash first, then everyone")
	return cmd
}

func galleryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openGalleryStore(ctx)
			if err != nil {
				return err
			}
			names, err := store.List(ctx)
			if err != nil {
				return err
			}
			current, err := store.Current(ctx)
			if err != nil && !errors.Is(err, gallery.ErrNoSnapshot) {
				return err
			}
			for _, name := range names {
				marker := " "
				if name == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func galleryRemoveCmd(a *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Drop a user from the current snapshot and commit a compacted copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openGalleryStore(ctx)
			if err != nil {
				return err
			}
			g, err := store.Latest(ctx)
			if err != nil {
				return err
			}
			if !g.Delete(userID) {
				return fmt.Errorf("%w: %q", gallery.ErrNotFound, userID)
			}
			compacted := g.Compact()

			name, err := store.Save(ctx, g)
			a.engine.Logger().LogSnapshot(ctx, name, g.Len(), err)
			if err != nil {
				return err
			}
			return printJSON(cmd, snapshotOutput{
				Name:      name,
				Records:   g.Len(),
				Verified:  g.VerifiedCount(),
				Compacted: compacted,
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func galleryPruneCmd(a *app) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openGalleryStore(ctx)
			if err != nil {
				return err
			}
			n, err := store.Prune(ctx, keep)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshot(s)\n", n)
			return err
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 3, "Number of newest snapshots to keep")
	return cmd
}
