package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const appName = "mbsync"

var Version = "0.1.0"

var appDir = filepath.Join(xdg.StateHome, appName)

var (
	titleStyle   = color.New(color.Bold, color.FgHiWhite)
	commandStyle = color.New(color.FgHiGreen)
	flagStyle    = color.New(color.Bold, color.FgHiCyan)
	errStyle     = color.New(color.Bold, color.FgHiRed)
)

// cliOptions are the flags shared by every subcommand.
type cliOptions struct {
	schemaPath   string
	verbose      bool
	noFallback   bool
	rowTolerance float64
	gapThreshold float64
	pageWorkers  int

	logDir  string
	log     *slog.Logger
	logFile *os.File
}

func main() {
	rootCmd, opts := newRootCmd(os.Stdout, os.Stderr)
	err := rootCmd.Execute()
	opts.closeLog()
	if err != nil {
		errStyle.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *cliOptions) {
	opts := &cliOptions{logDir: appDir}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Turn inventory reports into order change requests",
		Long: color.New(color.FgHiMagenta).Sprintf(
			"mbsync reads inventory reports and fills change request forms %s",
			color.New(color.FgBlue).Sprintf("(%s)", Version),
		),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.openLog(cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.closeLog()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.schemaPath, "schema", "s", "", "Column schema file (defaults to the XDG config schema)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log parser diagnostics to stderr")
	pf.BoolVar(&opts.noFallback, "no-pdftotext", false, "Do not fall back to pdftotext for PDFs without a text layer")
	pf.Float64Var(&opts.rowTolerance, "row-tolerance", 5, "Vertical distance that keeps fragments on one line")
	pf.Float64Var(&opts.gapThreshold, "gap-threshold", 4, "Horizontal gap that inserts a space")
	pf.IntVar(&opts.pageWorkers, "page-workers", 4, "Pages reconstructed concurrently")

	rootCmd.AddCommand(
		newParseCmd(opts),
		newFillCmd(opts),
		newSchemaCmd(opts),
	)
	rootCmd.SetUsageTemplate(usageTemplate)
	return rootCmd, opts
}

// openLog sets up the command's logger: stderr when verbose, otherwise the
// log file in the state directory. A log file that cannot be opened
// silences logging.
func (o *cliOptions) openLog(stderr io.Writer) {
	if o.verbose {
		o.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return
	}
	o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := os.MkdirAll(o.logDir, 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(o.logDir, appName+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	o.logFile = f
	o.log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// closeLog closes the log file, if any. It is safe to call more than once.
func (o *cliOptions) closeLog() error {
	if o.logFile == nil {
		return nil
	}
	err := o.logFile.Close()
	o.logFile = nil
	o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	return err
}

func (o *cliOptions) logger() *slog.Logger {
	if o.log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.log
}

var usageTemplate = titleStyle.Sprint("Usage:") + `{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasExample}}

` + titleStyle.Sprint("Examples:") + `
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

` + titleStyle.Sprint("Commands:") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  ` + commandStyle.Sprint("{{rpad .Name .NamePadding }}") + ` {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

` + flagStyle.Sprint("Flags:") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

` + flagStyle.Sprint("Global Flags:") + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
