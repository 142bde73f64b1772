package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"surfbatch/internal/layout"
	"surfbatch/internal/logging"
	"surfbatch/internal/preflight"
	"surfbatch/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var checkVertices bool

	cmd := &cobra.Command{
		Use:   "verify <subject>",
		Short: "Audit a subject's output tree for completeness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			subject := args[0]

			paths := layout.NewResolver(cfg.Paths.DataDir, cfg.Paths.OutputDir)
			catalog := layout.Catalog(cfg.Batch.Tasks, cfg.Batch.Runs)

			verifier := verify.NewVerifier(paths, catalog, nil)
			if checkVertices {
				if missing := preflight.MissingTools(cmd.Context(), cfg); len(missing) > 0 {
					return fmt.Errorf("cannot check vertex counts: %s", missing[0].Detail)
				}
				client, err := ctx.newWorkbenchClient(logging.NewNop())
				if err != nil {
					return err
				}
				verifier = verify.NewVerifier(paths, catalog, client)
			}

			report, err := verifier.Subject(cmd.Context(), subject, checkVertices)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject %s: %d of %d expected files present\n",
				subject, report.Present(), len(report.Files))
			fmt.Fprintf(out, "Vertex counts checked: %s\n", yesNo(report.CheckedVertex))

			if missing := report.Missing(); len(missing) > 0 {
				fmt.Fprintln(out, "Missing:")
				for _, f := range missing {
					fmt.Fprintf(out, "  %s %s %s (%s)\n", f.Unit.Name(), f.Variant, f.Hemisphere, f.Path)
				}
			}
			if bad := report.VertexFailures(); len(bad) > 0 {
				fmt.Fprintln(out, "Vertex count mismatches:")
				for _, f := range bad {
					fmt.Fprintf(out, "  %s %s %s: %s\n", f.Unit.Name(), f.Variant, f.Hemisphere, f.Detail)
				}
			}

			if !report.Complete() {
				return fmt.Errorf("subject %s outputs incomplete", subject)
			}
			fmt.Fprintln(out, "All outputs present")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkVertices, "check-vertices", false, "Interrogate each file with wb_command and confirm vertex counts")
	return cmd
}
