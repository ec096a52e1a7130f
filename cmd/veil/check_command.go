package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"veil/internal/match"
	"veil/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify binaries, directories and free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, output)

			t := newReport(label("Check"), label("Result"), label("Detail"))
			for _, r := range results {
				t.add(r.Name, passFail(r.Passed), r.Detail)
			}
			_, backendErr := match.NewCorrelator(cfg.Matching.Backend)
			detail := cfg.Matching.Backend
			if backendErr != nil {
				detail = backendErr.Error()
			}
			t.add("Correlation backend", passFail(backendErr == nil), detail)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t)

			return errors.Join(preflight.Err(results), backendErr)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also check the directory that will receive this output file")
	return cmd
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}
