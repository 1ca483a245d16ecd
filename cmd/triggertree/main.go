// Command triggertree loads triggers from a YAML file and shows how they are
// organized, or which of them match a JSON frame.
//
//	triggertree tree -t triggers.yaml
//	triggertree match -t triggers.yaml -f frame.json
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/ezachrisen/triggertree"
	"github.com/ezachrisen/triggertree/cel"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// treeFlags are the flags shared by all commands.
type treeFlags struct {
	triggerPath string
	maxExpand   int
	debug       bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags treeFlags
	root := &cobra.Command{
		Use:           "triggertree",
		Short:         "Index trigger expressions and match frames against them",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.triggerPath, "triggers", "t", "triggers.yaml", "YAML file listing the triggers")
	root.PersistentFlags().IntVar(&flags.maxExpand, "max-expansion", triggertree.DefaultMaxExpansion, "maximum number of clauses per trigger")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log tree changes")

	root.AddCommand(treeCmd(&flags), matchCmd(&flags))
	return root
}

func treeCmd(flags *treeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the trigger tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, flags)
		},
	}
}

func matchCmd(flags *treeFlags) *cobra.Command {
	var framePath string
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Print the most specific triggers matching a frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, flags, framePath)
		},
	}
	cmd.Flags().StringVarP(&framePath, "frame", "f", "-", "JSON file holding the frame, or - for stdin")
	return cmd
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// buildTree loads the triggers into a new tree. stop releases the evaluator.
func buildTree(flags *treeFlags) (t *triggertree.Tree, stop func(), err error) {
	logger := newLogger(flags.debug)
	ev, err := cel.NewEvaluator()
	if err != nil {
		return nil, nil, err
	}
	t = triggertree.New(ev,
		triggertree.WithLogger(logger),
		triggertree.WithMaxExpansion(flags.maxExpand),
	)
	start := time.Now()
	if err := loadTriggers(t, flags.triggerPath); err != nil {
		ev.Stop()
		return nil, nil, err
	}
	logger.Info("loaded triggers",
		"count", humanize.Comma(int64(t.TotalTriggers())),
		"elapsed", time.Since(start))
	for _, tr := range t.Triggers() {
		if tr.Diagnostics != nil {
			logger.Warn("trigger has dropped clauses", "id", tr.ID, "trigger", tr.String(), "error", tr.Diagnostics)
		}
	}
	return t, ev.Stop, nil
}

func runTree(cmd *cobra.Command, flags *treeFlags) error {
	t, stop, err := buildTree(flags)
	if err != nil {
		return err
	}
	defer stop()
	fmt.Fprint(cmd.OutOrStdout(), t.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%s triggers\n", humanize.Comma(int64(t.TotalTriggers())))
	if v := t.VerifyTree(); v != nil {
		return v
	}
	return nil
}

func runMatch(cmd *cobra.Command, flags *treeFlags, framePath string) error {
	t, stop, err := buildTree(flags)
	if err != nil {
		return err
	}
	defer stop()
	frame, err := loadFrame(framePath)
	if err != nil {
		return err
	}
	matches := t.Matches(frame)
	if len(matches) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matches")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), triggertree.MatchTable(matches...))
	n := 0
	for _, m := range matches {
		n += len(m.Triggers)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s in %s\n",
		english.Plural(n, "matching trigger", ""),
		english.Plural(len(matches), "node", ""))
	return nil
}
