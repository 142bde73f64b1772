package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"surfbatch/internal/batch"
	"surfbatch/internal/config"
	"surfbatch/internal/runstate"
	"surfbatch/internal/subjects"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		subjectFlags []string
		listFile     string
		scan         bool
		jobs         int
		force        bool
		resume       bool
		dataDir      string
		atlasDir     string
		outputDir    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process subjects through separation and resampling",
		Long: `Run separates each subject's combined CIFTI task files into hemisphere
metrics and resamples them onto the fsaverage4 mesh. Subjects come from
--subject flags, a --subject-list file, or a --scan of the data tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyDirOverrides(cfg, dataDir, atlasDir, outputDir); err != nil {
				return err
			}

			ids, err := resolveSubjects(cfg, subjectFlags, listFile, scan)
			if err != nil {
				return err
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			client, err := ctx.newWorkbenchClient(logger)
			if err != nil {
				return err
			}

			store, err := runstate.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run-state store: %w", err)
			}
			defer store.Close()

			dispatcher, err := batch.NewDispatcher(cfg, store, client, logger)
			if err != nil {
				return err
			}

			effectiveJobs := cfg.Batch.Jobs
			if cmd.Flags().Changed("jobs") {
				effectiveJobs = jobs
			}

			result, err := dispatcher.Run(cmd.Context(), ids, batch.Options{
				Jobs:   effectiveJobs,
				Force:  force,
				Resume: resume,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d subjects: %d succeeded, %d failed\n",
				len(result.Outcomes), len(result.Succeeded()), len(result.Failed()))
			if failed := result.Failed(); len(failed) > 0 {
				return fmt.Errorf("subjects failed: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&subjectFlags, "subject", "s", nil, "Subject ID to process (repeatable)")
	cmd.Flags().StringVarP(&listFile, "subject-list", "l", "", "File with one subject ID per line")
	cmd.Flags().BoolVar(&scan, "scan", false, "Process every subject directory found in the data tree")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Maximum subjects processed in parallel")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess files whose outputs already exist")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip subjects completed by an earlier run")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Override the preprocessed data directory")
	cmd.Flags().StringVar(&atlasDir, "atlas-dir", "", "Override the atlas directory")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the output directory")

	return cmd
}

// resolveSubjects applies the precedence explicit flags > list file > scan.
func resolveSubjects(cfg *config.Config, explicit []string, listFile string, scan bool) ([]string, error) {
	switch {
	case len(explicit) > 0:
		return subjects.FromExplicit(explicit)
	case strings.TrimSpace(listFile) != "":
		path, err := config.ExpandPath(listFile)
		if err != nil {
			return nil, err
		}
		return subjects.FromListFile(path)
	case scan:
		return subjects.Scan(cfg.Paths.DataDir)
	default:
		return nil, fmt.Errorf("no subjects given: use --subject, --subject-list, or --scan")
	}
}

func applyDirOverrides(cfg *config.Config, dataDir, atlasDir, outputDir string) error {
	overrides := []struct {
		value  string
		target *string
	}{
		{dataDir, &cfg.Paths.DataDir},
		{atlasDir, &cfg.Paths.AtlasDir},
		{outputDir, &cfg.Paths.OutputDir},
	}
	changed := false
	for _, o := range overrides {
		if strings.TrimSpace(o.value) == "" {
			continue
		}
		expanded, err := config.ExpandPath(o.value)
		if err != nil {
			return err
		}
		*o.target = expanded
		changed = true
	}
	if changed {
		return cfg.EnsureDirectories()
	}
	return nil
}
