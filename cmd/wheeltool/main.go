// Command wheeltool inspects and repacks Python wheel archives.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrMino/wheelfile"
)

var version = "development version"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "wheeltool",
		Short:         "Inspect and repack Python wheel archives",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log what the tool is doing",
	)

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	var (
		repackOutDir string
		repackBuild  int
	)
	cmdRepack := &cobra.Command{
		Use:   "repack WHEEL",
		Short: "Rewrite a wheel, refreshing its metadata and record",
		Long: "Clone a wheel into a fresh archive. The contents are re-recorded and\n" +
			"the metadata members are rewritten, which fixes wheels with stale or\n" +
			"missing RECORD entries.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepack(cmd.OutOrStdout(), args[0], repackOutDir,
				cmd.Flags().Changed("build"), repackBuild, logger())
		},
	}
	cmdRepack.Flags().StringVarP(
		&repackOutDir, "dest", "d", ".", "directory to write the repacked wheel to",
	)
	cmdRepack.Flags().IntVarP(
		&repackBuild, "build", "b", 0, "build tag to set on the repacked wheel",
	)
	rootCmd.AddCommand(cmdRepack)

	cmdMetadata := &cobra.Command{
		Use:   "metadata WHEEL",
		Short: "Print a wheel's METADATA member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(cmd.OutOrStdout(), args[0], logger())
		},
	}
	rootCmd.AddCommand(cmdMetadata)

	cmdVerify := &cobra.Command{
		Use:   "verify WHEEL",
		Short: "Check a wheel's record against its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.OutOrStdout(), args[0], logger())
		},
	}
	rootCmd.AddCommand(cmdVerify)

	cmdList := &cobra.Command{
		Use:   "list WHEEL",
		Short: "List a wheel's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), args[0], logger())
		},
	}
	rootCmd.AddCommand(cmdList)

	return rootCmd
}

func runRepack(out io.Writer, path, outDir string, buildSet bool, build int, logger *slog.Logger) error {
	src, err := wheelfile.Open(path, wheelfile.ModeRead,
		wheelfile.WithoutValidation(),
		wheelfile.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := []wheelfile.CloneOption{
		wheelfile.CloneWithSessionOptions(wheelfile.WithLogger(logger)),
	}
	if buildSet {
		opts = append(opts, wheelfile.CloneWithBuildTag(build))
	}
	dest, err := wheelfile.FromWheelFile(src, outDir+string(os.PathSeparator), opts...)
	if err != nil {
		return err
	}
	if err := dest.Close(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Repacked wheel created:", dest.Filename())
	return nil
}

func runMetadata(out io.Writer, path string, logger *slog.Logger) error {
	wf, err := wheelfile.Open(path, wheelfile.ModeRead,
		wheelfile.WithoutValidation(),
		wheelfile.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer wf.Close()

	if wf.Metadata == nil {
		return fmt.Errorf("%s: METADATA is missing or unparseable", path)
	}
	fmt.Fprint(out, wf.Metadata.ToText())
	return nil
}

func runVerify(out io.Writer, path string, logger *slog.Logger) error {
	wf, err := wheelfile.Open(path, wheelfile.ModeRead, wheelfile.WithLogger(logger))
	if err != nil {
		return err
	}
	defer wf.Close()

	if err := wf.VerifyContents(); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func runList(out io.Writer, path string, logger *slog.Logger) error {
	wf, err := wheelfile.Open(path, wheelfile.ModeRead,
		wheelfile.WithoutValidation(),
		wheelfile.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer wf.Close()

	for _, e := range wf.Entries() {
		fmt.Fprintf(out, "%10d  %s\n", e.Size, e.Path)
	}
	return nil
}
