package main

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/palmvec/embedding"
	"github.com/spf13/cobra"
)

type decodeOutput struct {
	Length    int       `json:"length"`
	RawBytes  int       `json:"raw_bytes"`
	Words     int       `json:"words"`
	Repairs   []string  `json:"repairs"`
	NonFinite int       `json:"non_finite"`
	Hash      string    `json:"hash,omitempty"`
	Vector    []float64 `json:"vector,omitempty"`
}

func decodeCmd(a *app) *cobra.Command {
	var withValues bool
	cmd := &cobra.Command{
		Use:   "decode [BASE64|-]",
		Short: "Decode a Base64 half-float payload and report the repairs applied",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readArg(cmd, args, 0)
			if err != nil {
				return err
			}

			v, rep, err := a.engine.Normalizer().Decoder().DecodeWithReport(text)
			if err != nil {
				return err
			}

			out := decodeOutput{
				Length:    len(v),
				RawBytes:  rep.RawBytes,
				Words:     rep.Words,
				Repairs:   rep.Repairs(),
				NonFinite: rep.NonFinite,
			}
			if out.Repairs == nil {
				out.Repairs = []string{}
			}
			if v.Finite() {
				out.Hash = a.engine.Matcher().SampledHash(v)
				if withValues {
					out.Vector = v
				}
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&withValues, "values", false, "Include the decoded vector")
	return cmd
}

func encodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode [JSON-ARRAY|-]",
		Short: "Encode a JSON numeric array as Base64 half-floats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readArg(cmd, args, 0)
			if err != nil {
				return err
			}
			var values []float64
			if err := json.Unmarshal([]byte(text), &values); err != nil {
				return fmt.Errorf("expected a JSON numeric array: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), embedding.EncodeBase64(values))
			return err
		},
	}
}

func hashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash [INPUT|-]",
		Short: "Print the sampled hash of a normalized embedding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args, 0)
			if err != nil {
				return err
			}
			h, err := a.engine.Hash(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h)
			return err
		},
	}
}

func compareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare INPUT INPUT",
		Short: "Compute the cosine similarity of two embeddings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := parseInput(args[0])
			if err != nil {
				return err
			}
			second, err := parseInput(args[1])
			if err != nil {
				return err
			}
			r, err := a.engine.Compare(cmd.Context(), first, second)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"score":     r.Score,
				"matched":   r.Matched,
				"threshold": a.engine.Matcher().Threshold(),
			})
		},
	}
}
