package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/record"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func diffCmd(flags *globalFlags) *cobra.Command {
	var (
		framePath string
		stats     bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Print the mutations that turn one tree into another",
		Long: `Mount the old tree, patch it to the new one and print the surface
operations the patch needed, followed by the resulting HTML.

Both trees are decoded with one handler set, so a handler named in both
files is the same listener and is not rebound.

Examples:
  vtree diff before.yaml after.yaml
  vtree diff before.yaml after.yaml --stats
  vtree diff before.yaml after.yaml --frame patch.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := flags.logger(cfg, cmd.ErrOrStderr())

			handlers := vdom.HandlerSet{}
			oldTree, err := vdom.LoadFile(args[0], handlers)
			if err != nil {
				return err
			}
			newTree, err := vdom.LoadFile(args[1], handlers)
			if err != nil {
				return err
			}

			surf := memsurface.New()
			rec := record.New(surf, surf.Root())
			r := reconcile.New(rec,
				reconcile.WithLogger(logger),
				reconcile.WithKeyPolicy(cfg.KeyPolicyValue()),
			)

			if err := r.RenderContext(cmd.Context(), oldTree, surf.Root()); err != nil {
				return fmt.Errorf("mount %s: %w", args[0], err)
			}
			rec.Reset()

			if err := r.RenderContext(cmd.Context(), newTree, surf.Root()); err != nil {
				return fmt.Errorf("patch %s: %w", args[1], err)
			}
			ops := rec.Ops()

			w := cmd.OutOrStdout()
			fmt.Fprint(w, rec.Dump())
			fmt.Fprintln(w, surf.InnerHTML(surf.Root()))

			if stats {
				st := r.Stats()
				fmt.Fprintf(w, "ops=%d mounted=%d patched=%d moved=%d removed=%d replaced=%d props=%d\n",
					len(ops), st.Mounted, st.Patched, st.Moved, st.Removed, st.Replaced, st.PropsChanged)
			}

			if framePath != "" {
				data := bytes.Join(protocol.EncodeOps(ops), nil)
				if err := os.WriteFile(framePath, data, 0644); err != nil {
					return fmt.Errorf("write frame: %w", err)
				}
				success(cmd.ErrOrStderr(), "Wrote %d ops (%d bytes) to %s", len(ops), len(data), framePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&framePath, "frame", "", "Write the ops as protocol frames to this file")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print renderer statistics for the patch")

	return cmd
}
