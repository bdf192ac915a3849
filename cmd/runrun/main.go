// Package main provides the CLI entrypoint for runrun.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/runrun/internal/config"
	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/route"
	"github.com/verte-zerg/runrun/internal/store"
)

const (
	defaultGranularity = "month"
	defaultTrendWindow = 3
	defaultUnit        = "km"
	defaultFormat      = "parquet"
	dateLayout         = "2006-01-02"
	gradientWidth      = 60
)

var (
	dbPath   string
	userFlag string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "runrun",
		Short:         "Running log with period stats, records and route analysis",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: $XDG_DATA_HOME/runrun/runrun.db)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "act as this user (default: profile.user)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newYearCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newSplitsCmd())
	rootCmd.AddCommand(newSegmentsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newGoalCmd())
	rootCmd.AddCommand(newFriendsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())

	return rootCmd
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// currentUser returns --user when set, else the configured profile.
func currentUser(fileCfg config.FileConfig) string {
	if u := strings.TrimSpace(userFlag); u != "" {
		return u
	}
	return fileCfg.UserID()
}

// openStore opens the database and returns a closer that logs failures.
func openStore() (*store.Store, func(), error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# runrun configuration
# Uncomment a value to enable it. CLI flags override config values.

[stats]
# granularity = %q       # week|month|year
# week-rule = "iso"         # iso|first-weekday
# first-weekday = "monday"  # Used with week-rule = "first-weekday"
# timezone = "Local"        # IANA zone used for period boundaries

[route]
# segment-length = %.0f      # Segment length in meters
# max-color-stops = %d     # Gradient stops kept for rendering

[splits]
# unit = %q               # km|mi
# include-partial = false   # Emit the trailing partial split

[profile]
# user = %q               # Owner of imported runs
# name = ""

# Personal-record distance classes replace the defaults when present.
# [[records.classes]]
# name = "10K"
# min-km = 9.5
# max-km = 10.5
`,
		defaultGranularity,
		route.DefaultSegmentLength,
		route.DefaultMaxStops,
		defaultUnit,
		model.DefaultUserID,
	)
}

// parseDate reads YYYY-MM-DD at midnight in loc; empty input means no bound.
func parseDate(flag, value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value: %w", flag, err)
	}
	return &parsed, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
