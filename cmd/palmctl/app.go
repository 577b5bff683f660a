package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/palmvec"
	"github.com/hupe1980/palmvec/config"
	"github.com/hupe1980/palmvec/embedding"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        config.Config
	engine     *palmvec.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "palmctl",
		Short:         "Palm embedding toolkit",
		Long:          "Decodes half-float palm embeddings, compares and fingerprints them, and manages the palm registry.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (PALMVEC_* variables override it)")

	root.AddCommand(
		decodeCmd(a),
		encodeCmd(a),
		hashCmd(a),
		compareCmd(a),
		registryCmd(a),
		galleryCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	eng, err := palmvec.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	a.cfg, a.engine = cfg, eng
	return nil
}

// readArg returns args[i], or stdin when the argument is missing or "-".
func readArg(cmd *cobra.Command, args []string, i int) (string, error) {
	if i < len(args) && args[i] != "-" {
		return args[i], nil
	}
	data, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// parseInput treats JSON strings, arrays and objects as JSON input shapes and
// anything else as raw Base64 text.
func parseInput(text string) (embedding.Input, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && strings.ContainsRune(`"[{`, rune(trimmed[0])) {
		return embedding.ParseInput([]byte(trimmed))
	}
	return embedding.Base64(trimmed), nil
}

func readInput(cmd *cobra.Command, args []string, i int) (embedding.Input, error) {
	text, err := readArg(cmd, args, i)
	if err != nil {
		return nil, err
	}
	return parseInput(text)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
