package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cdtdelta/daybook/internal/config"
	"github.com/cdtdelta/daybook/internal/database"
	"github.com/spf13/cobra"
)

// addInputFlags registers the flags that describe input tables and the
// lookup table.
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("lookup", "", "Lookup table mapping operation codes to names (JSON or YAML)")
	f.String("time-column", "", "Name of the timestamp column")
	f.String("event-column", "", "Name of the operation code column")
	f.String("attribute-prefix", "", "Only columns starting with this prefix become attributes")
	f.Bool("skip-malformed", false, "Skip rows with unparseable timestamps instead of failing")
}

// addDatabaseFlags registers the event database flags.
func addDatabaseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "", "Event database: SQLite file path or PostgreSQL connection string")
	f.String("driver", "", "Database driver: sqlite or postgres")
	f.String("table", "", "Database table holding events")
}

// applyFlags copies explicitly set flags over cfg. Flags a command does not
// define are ignored.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	strs := map[string]*string{
		"lookup":           &cfg.Lookup.Path,
		"time-column":      &cfg.Input.TimeColumn,
		"event-column":     &cfg.Input.EventColumn,
		"detail-column":    &cfg.Input.DetailColumn,
		"attribute-prefix": &cfg.Input.AttributePrefix,
		"missing-text":     &cfg.Report.MissingText,
		"from":             &cfg.Report.From,
		"to":               &cfg.Report.To,
		"output":           &cfg.Output.File,
		"db":               &cfg.Database.DSN,
		"driver":           &cfg.Database.Driver,
		"table":            &cfg.Database.Table,
	}
	for name, dst := range strs {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if f.Lookup("skip-malformed") != nil && f.Changed("skip-malformed") {
		cfg.Input.SkipMalformed, _ = f.GetBool("skip-malformed")
	}
	if f.Lookup("no-collapse") != nil && f.Changed("no-collapse") {
		noCollapse, _ := f.GetBool("no-collapse")
		cfg.Report.Collapse = !noCollapse
	}
	if f.Lookup("clipboard") != nil && f.Changed("clipboard") {
		cfg.Output.Clipboard, _ = f.GetBool("clipboard")
	}
	slices := map[string]*[]string{
		"only":    &cfg.Report.Only,
		"exclude": &cfg.Report.Exclude,
	}
	for name, dst := range slices {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// openStore opens the configured database when the command should read
// from it: --db was given, or no input files were named and a DSN is
// configured. It returns nil when the database is not used.
func (c *cli) openStore(cmd *cobra.Command, args []string) (database.Store, error) {
	if !cmd.Flags().Changed("db") && (len(args) > 0 || c.cfg.Database.DSN == "") {
		return nil, nil
	}
	if c.cfg.Database.DSN == "" {
		return nil, fmt.Errorf("--db requires a database path or connection string")
	}
	store, err := database.OpenStore(c.cfg.Database.Driver, c.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

// requireStore is openStore for commands that always need the database.
func (c *cli) requireStore() (database.Store, error) {
	if c.cfg.Database.DSN == "" {
		return nil, fmt.Errorf("no database given (use --db or database.dsn)")
	}
	store, err := database.OpenStore(c.cfg.Database.Driver, c.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

func (c *cli) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [input...]",
		Short: "Generate a day-grouped timeline report",
		Long: `Generate a timeline report from one or more CSV or JSON-lines files
(.jsonl, .ndjson), or from a database table with --db.

Each day starts with a header line; each entry is a tab-separated line of
time (or time range), "[source] name" and the rendered description.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd, args)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			if len(args) == 0 && store == nil {
				return fmt.Errorf("no input files given")
			}
			return c.newApp(cmd).Report(cmd.Context(), args, store)
		},
	}

	addInputFlags(cmd)
	addDatabaseFlags(cmd)
	f := cmd.Flags()
	f.String("detail-column", "", "Column whose text is appended to an entry and never collapsed")
	f.Bool("no-collapse", false, "Print one line per event instead of collapsing repeats")
	f.String("missing-text", "", "Text substituted for placeholders with no value")
	f.String("from", "", "First day to include (YYYY-MM-DD)")
	f.String("to", "", "Last day to include (YYYY-MM-DD)")
	f.StringSlice("only", nil, "Only include these operation codes")
	f.StringSlice("exclude", nil, "Leave out these operation codes")
	f.StringP("output", "o", "", "Write the report to this file instead of stdout")
	f.Bool("clipboard", false, "Copy the report to the clipboard")
	return cmd
}

func (c *cli) codesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes [input...]",
		Short: "List operation codes with counts and resolved names",
		Long: `List every distinct operation code in the inputs, most frequent first,
with its resolved name. Codes missing from the lookup table are marked
"(unknown)", and descriptions naming a column no row of the code has are
reported as warnings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd, args)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			if len(args) == 0 && store == nil {
				return fmt.Errorf("no input files given")
			}
			return c.newApp(cmd).Codes(cmd.Context(), args, store)
		},
	}
	addInputFlags(cmd)
	addDatabaseFlags(cmd)
	cmd.Flags().StringSlice("only", nil, "Only include these operation codes")
	cmd.Flags().StringSlice("exclude", nil, "Leave out these operation codes")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <input>",
		Short: "Load a CSV or JSON-lines file into an event database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			replace, _ := cmd.Flags().GetBool("replace")
			_, err = c.newApp(cmd).Import(cmd.Context(), args[0], store, replace)
			return err
		},
	}
	addInputFlags(cmd)
	addDatabaseFlags(cmd)
	cmd.Flags().Bool("replace", false, "Drop the table before importing")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <output.csv>",
		Short: "Write an event database table to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			_, err = c.newApp(cmd).Export(cmd.Context(), store, args[0], limit)
			return err
		},
	}
	addDatabaseFlags(cmd)
	cmd.Flags().Int("limit", 0, "Export at most this many rows (0 for all)")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the daybook configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file holding the defaults",
		Long: `Write the default configuration as YAML to path, or to the --config
file when no path is given. An existing file is kept unless --force is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfgFile
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			printNotice(cmd.ErrOrStderr(), "Wrote default configuration to "+path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the daybook version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "daybook "+Version)
		},
	}
}
