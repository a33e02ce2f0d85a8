package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"gerritwatch/internal/archive"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

type reaperFlags struct {
	configPath string
	dataDir    string
	dryRun     bool
	run        bool
	statuses   []string
	excludes   []string
	verbose    bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	var flags reaperFlags

	cmd := &cobra.Command{
		Use:   "reaper",
		Short: "Remove duplicate snapshot files from the data directory",
		Long: "reaper walks the snapshots of every category oldest first and deletes each file\n" +
			"whose content repeats the one before it. Snapshots referenced by the log state\n" +
			"are never touched.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReaper(cmd.OutOrStdout(), &flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&flags.dataDir, "data-dir", "", "data directory (overrides config)")
	f.BoolVarP(&flags.dryRun, "dry-run", "d", false, "report what would be deleted without deleting")
	f.BoolVarP(&flags.run, "run", "r", false, "delete files even if the config asks for a dry run")
	f.StringArrayVarP(&flags.statuses, "status", "s", nil, "additional category to reap (repeatable)")
	f.StringArrayVarP(&flags.excludes, "exclude", "x", nil, "file name to leave alone (repeatable)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "log every file decision")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "only log errors")

	cmd.MarkFlagsMutuallyExclusive("dry-run", "run")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	return cmd
}

func runReaper(out io.Writer, flags *reaperFlags) error {
	conf, err := providers.NewConfigProvider(&structures.CliFlags{ConfigPath: flags.configPath})
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if flags.dataDir != "" {
		conf.DataDir = flags.dataDir
	}
	if conf.DataDir == "" {
		return errors.New("data directory is not specified")
	}
	if info, err := os.Stat(conf.DataDir); err != nil || !info.IsDir() {
		return errors.Newf("data directory %s does not exist", conf.DataDir)
	}

	conf.Logger.Dir = ""
	switch {
	case flags.verbose:
		conf.Logger.Level = "debug"
	case flags.quiet:
		conf.Logger.Level = "error"
	}
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return err
	}
	defer logger.Close()

	dryRun := conf.Reaper.DryRun
	if flags.dryRun {
		dryRun = true
	}
	if flags.run {
		dryRun = false
	}

	compressor, err := archive.NewCompressor(conf)
	if err != nil {
		return err
	}
	defer compressor.Close()

	metrics := providers.NewMetricsProvider(&structures.Config{})
	store := archive.NewSnapshotStore(conf, compressor, logger, metrics)
	logStore := archive.NewLogStore(conf, compressor, logger, metrics)
	reaper := archive.NewReaper(store, logStore, logger, metrics)

	logger.Debugf(providers.TypeReaper, "dryRun=%t dataDir=%s statuses=%v exclude=%v", dryRun, conf.DataDir, flags.statuses, flags.excludes)

	reports, err := reaper.Run(archive.ReapOptions{
		Categories:   append(append([]string{}, conf.Monitor.Categories...), flags.statuses...),
		ExcludeFiles: flags.excludes,
		DryRun:       dryRun,
	})
	if err != nil {
		return err
	}

	printSummary(out, reports, dryRun)
	return nil
}

func printSummary(out io.Writer, reports []*archive.ReapReport, dryRun bool) {
	var kept, skipped, deleted, failed []string
	for _, r := range reports {
		kept = append(kept, r.Kept...)
		skipped = append(skipped, r.Skipped...)
		deleted = append(deleted, r.Deleted...)
		failed = append(failed, r.Failed...)
	}

	suffix := ""
	if dryRun {
		suffix = " *** DRY RUN ONLY ***"
	}
	printList(out, fmt.Sprintf("Keeping %d files", len(kept)), kept)
	printList(out, fmt.Sprintf("Skipped %d files", len(skipped)), skipped)
	printList(out, fmt.Sprintf("Deleted %d files%s", len(deleted), suffix), deleted)
	if len(failed) > 0 {
		printList(out, fmt.Sprintf("Failed %d files", len(failed)), failed)
	}
}

func printList(out io.Writer, title string, names []string) {
	fmt.Fprintf(out, "%s:\n", title)
	if len(names) > 0 {
		fmt.Fprintf(out, "- %s\n", strings.Join(names, "\n- "))
	}
}
