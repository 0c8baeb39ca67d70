package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/memsurface"
	"github.com/vango-dev/vtree/pkg/reconcile"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		save  string
		check string
	)

	cmd := &cobra.Command{
		Use:   "render <tree>",
		Short: "Mount a tree and print its HTML",
		Long: `Mount a tree into an empty in-memory surface and print the result as HTML.

With --snapshot the HTML is also stored under the given name in the
configured snapshot store (snapshot.dir, or snapshot.s3 when a bucket is
set). With --check the HTML is compared to a stored snapshot instead and
the command fails when they differ.

Examples:
  vtree render page.yaml
  vtree render page.yaml --snapshot page.html
  vtree render page.yaml --check page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger := flags.logger(cfg, cmd.ErrOrStderr())

			tree, err := vdom.LoadFile(args[0], vdom.HandlerSet{})
			if err != nil {
				return err
			}

			surf := memsurface.New()
			r := reconcile.New(surf,
				reconcile.WithLogger(logger),
				reconcile.WithKeyPolicy(cfg.KeyPolicyValue()),
			)
			if err := r.RenderContext(cmd.Context(), tree, surf.Root()); err != nil {
				return err
			}
			html := surf.InnerHTML(surf.Root())

			if save == "" && check == "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}

			store, err := cfg.OpenSnapshotStore()
			if err != nil {
				return err
			}
			if check != "" {
				want, err := store.Get(cmd.Context(), check)
				if err != nil {
					return err
				}
				if string(want) != html {
					return errors.Newf(errors.CategoryCLI, "snapshot %q differs from rendered output", check).
						WithDetail("want: " + string(want) + "\ngot:  " + html)
				}
				success(cmd.ErrOrStderr(), "Matches snapshot %s", check)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), html)
			if err := store.Put(cmd.Context(), save, []byte(html)); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Saved snapshot %s", save)
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "snapshot", "", "Store the HTML under this snapshot name")
	cmd.Flags().StringVar(&check, "check", "", "Compare the HTML with this stored snapshot")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "check")

	return cmd
}
