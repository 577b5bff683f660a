package main

import (
	"fmt"
	"time"

	"github.com/hupe1980/palmvec"
	"github.com/hupe1980/palmvec/registry"
	"github.com/spf13/cobra"
)

func registryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage enrolled palms",
	}
	cmd.AddCommand(
		enrollCmd(a),
		replaceCmd(a),
		verifyCmd(a),
		registryIdentifyCmd(a),
		deleteCmd(a),
		listCmd(a),
		statsCmd(a),
		exportCmd(a),
	)
	return cmd
}

// withRegistry opens the registry for the duration of fn.
func (a *app) withRegistry(fn func(r *registry.Registry) error) (err error) {
	r, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(r)
}

func enrollCmd(a *app) *cobra.Command {
	var (
		userID         string
		verified       bool
		checkDuplicate bool
	)
	cmd := &cobra.Command{
		Use:   "enroll [INPUT|-]",
		Short: "Enroll a palm for a user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, 0)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			v, err := a.engine.Normalize(ctx, in)
			if err != nil {
				return err
			}

			return a.withRegistry(func(r *registry.Registry) error {
				if checkDuplicate {
					dup, err := a.engine.FindDuplicate(ctx, r, in, userID)
					if err != nil {
						return err
					}
					if dup.Matched {
						return fmt.Errorf("%w: palm matches user %q (score %.4f)",
							registry.ErrDuplicateIdentity, dup.ID, dup.Score)
					}
				}

				rec, err := r.Enroll(ctx, registry.Enrollment{UserID: userID, Embedding: v, Verified: verified})
				if err != nil {
					return err
				}
				return printJSON(cmd, recordView(rec))
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().BoolVar(&verified, "verified", false, "Mark the palm as verified")
	cmd.Flags().BoolVar(&checkDuplicate, "check-duplicate", true, "Reject palms that match another verified user")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func replaceCmd(a *app) *cobra.Command {
	var (
		userID         string
		checkDuplicate bool
	)
	cmd := &cobra.Command{
		Use:   "replace [INPUT|-]",
		Short: "Re-enroll a user's palm; the verified flag is cleared",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, 0)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			v, err := a.engine.Normalize(ctx, in)
			if err != nil {
				return err
			}

			return a.withRegistry(func(r *registry.Registry) error {
				if checkDuplicate {
					dup, err := a.engine.FindDuplicate(ctx, r, in, userID)
					if err != nil {
						return err
					}
					if dup.Matched {
						return fmt.Errorf("%w: palm matches user %q (score %.4f)",
							registry.ErrDuplicateIdentity, dup.ID, dup.Score)
					}
				}

				if err := r.ReplaceEmbedding(ctx, userID, v); err != nil {
					return err
				}
				rec, err := r.Get(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, recordView(rec))
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().BoolVar(&checkDuplicate, "check-duplicate", true, "Reject palms that match another verified user")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func verifyCmd(a *app) *cobra.Command {
	var (
		userID string
		revoke bool
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Mark a user's palm as verified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRegistry(func(r *registry.Registry) error {
				return r.SetVerified(cmd.Context(), userID, !revoke)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Clear the verified flag instead")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func registryIdentifyCmd(a *app) *cobra.Command {
	var byHash bool
	cmd := &cobra.Command{
		Use:   "identify [INPUT|-]",
		Short: "Find the first verified user whose palm matches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, 0)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withRegistry(func(r *registry.Registry) error {
				var id palmvec.Identification
				if byHash {
					id, err = a.engine.IdentifyByHash(ctx, r, r.CandidatesByHash, in)
				} else {
					id, err = a.engine.Identify(ctx, r, in)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, id)
			})
		},
	}
	cmd.Flags().BoolVar(&byHash, "by-hash", false, "Scan candidates with the same sampled hash first, then everyone")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a user's palm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRegistry(func(r *registry.Registry) error {
				return r.Delete(cmd.Context(), userID)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

type recordOutput struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Hash      string    `json:"hash"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func recordView(rec registry.Record) recordOutput {
	return recordOutput{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Hash:      rec.Hash,
		Verified:  rec.Verified,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enrolled palms in enrollment order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRegistry(func(r *registry.Registry) error {
				recs, err := r.List(cmd.Context())
				if err != nil {
					return err
				}
				out := make([]recordOutput, 0, len(recs))
				for _, rec := range recs {
					out = append(out, recordView(rec))
				}
				return printJSON(cmd, out)
			})
		},
	}
}

type statsOutput struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count enrolled and verified palms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRegistry(func(r *registry.Registry) error {
				total, verified, err := r.Count(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, statsOutput{Total: total, Verified: verified})
			})
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the registry to a new gallery snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openGalleryStore(ctx)
			if err != nil {
				return err
			}
			return a.withRegistry(func(r *registry.Registry) error {
				g, err := r.Export(ctx)
				if err != nil {
					return err
				}
				name, err := store.Save(ctx, g)
				a.engine.Logger().LogSnapshot(ctx, name, g.Len(), err)
				if err != nil {
					return err
				}
				return printJSON(cmd, snapshotOutput{Name: name, Records: g.Len(), Verified: g.VerifiedCount()})
			})
		},
	}
}

type snapshotOutput struct {
	Name      string `json:"name"`
	Records   int    `json:"records"`
	Verified  int    `json:"verified"`
	Compacted int    `json:"compacted,omitempty"`
}
