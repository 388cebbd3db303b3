package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/grammar"
)

func newExpandCmd(a *app) *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "expand [preset]",
		Short: "Print the token sequence a preset expands to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolve(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("iterations") {
				p.Iterations = iterations
			}
			exp, err := a.generator(0).Expand(cmd.Context(), p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s: %d iterations, growth %v\n", p.Name, p.Iterations, exp.Steps)
			fmt.Fprintln(out, grammar.Join(exp.Tokens))
			return nil
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "override the preset's iteration count")
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		seed   uint64
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "generate [preset]",
		Short: "Generate one tree mesh",
		Long: `Generate one tree mesh and write it as Wavefront OBJ, JSON or the
compact binary payload. Without --seed a random seed is used and
reported on stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			p, err := a.resolve(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = generator.RandomSeed()
			}

			res, err := a.generator(0).Generate(cmd.Context(), p, seed)
			if err != nil {
				return err
			}

			w, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err = writeResult(w, format, res); err != nil {
				_ = w.Close()
				return err
			}
			if err = w.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s seed=%d vertices=%d triangles=%d hash=%x\n",
				res.Preset, res.Seed, res.Mesh.VertexCount(), res.Mesh.TriangleCount(), res.Hash)
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&format, "format", "obj", "output format: obj, json or bin")
	return cmd
}

func newForestCmd(a *app) *cobra.Command {
	var (
		seed    uint64
		count   int
		workers int
		outDir  string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "forest [preset]",
		Short: "Generate several trees from consecutive seeds in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			p, err := a.resolve(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = generator.RandomSeed()
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.ForestWorkers
			}

			results, err := a.generator(workers).Forest(cmd.Context(), p, generator.Seeds(seed, count))
			if err != nil {
				return err
			}
			if err = os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEED\tVERTICES\tTRIANGLES\tLEAVES\tFILE")
			for _, res := range results {
				path := filepath.Join(outDir, fmt.Sprintf("%s_%d.%s", res.Preset, res.Seed, format))
				if err = writeFile(path, format, res); err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n",
					res.Seed, res.Mesh.VertexCount(), res.Mesh.TriangleCount(), res.Stats.Leaves, path)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "first seed")
	cmd.Flags().IntVarP(&count, "count", "c", 4, "number of trees")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel workers (default ARBOR_FOREST_WORKERS)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory for the generated files")
	cmd.Flags().StringVar(&format, "format", "obj", "output format: obj, json or bin")
	return cmd
}

func newPresetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tITERATIONS\tAXIOM\tDESCRIPTION")
			for _, p := range reg.List() {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Name, p.Iterations, p.Axiom, p.Description)
			}
			return tw.Flush()
		},
	}
}

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "obj", "json", "bin":
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeResult(w io.Writer, format string, res *generator.Result) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "bin":
		data, err := res.Mesh.Serialize()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return res.Mesh.WriteOBJ(w, fmt.Sprintf("%s_%d", res.Preset, res.Seed))
	}
}

func writeFile(path, format string, res *generator.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = writeResult(f, format, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
