// Command m3dis serves the M3DIS parameter forms and writes the namelist
// file of every launched run.
package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/G-Node/formkit/formkit"
	"github.com/G-Node/formkit/formkit/db"
	"github.com/G-Node/formkit/formkit/layout"
	"github.com/spf13/cobra"
)

type flags struct {
	config    string
	params    string
	runDir    string
	port      uint16
	dbPath    string
	name      string
	overwrite bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	f := new(flags)
	rootCmd := &cobra.Command{
		Use:   "m3dis",
		Short: "Launcher for M3DIS runs",
		Long: `Serve the M3DIS parameter forms in the browser.  Every launch validates
the forms and writes <name>.nml into the run directory.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f)
		},
	}
	rootCmd.PersistentFlags().StringVar(&f.params, "params", "", "YAML file overriding the default parameters")
	rootCmd.PersistentFlags().StringVar(&f.runDir, "run-dir", ".", "directory the namelist files are written to")
	rootCmd.PersistentFlags().StringVar(&f.config, "config", "", "service configuration file")
	rootCmd.PersistentFlags().StringVar(&f.dbPath, "db", "", "job database path (overrides the configuration)")
	rootCmd.Flags().Uint16Var(&f.port, "port", 0, "port to listen on (overrides the configuration)")

	rootCmd.AddCommand(newWriteCmd(f), newJobsCmd(f))
	return rootCmd
}

func newWriteCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write a namelist file without serving the forms",
		Example: `  # Write ba_test1.nml from the defaults and a parameter file
  m3dis write --name ba_test1 --params params.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "name of the namelist file (default: the launch form value)")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "replace an existing namelist file")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "list the written values")
	return cmd
}

func newJobsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the launched jobs of every session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, f)
		},
	}
}

// loadConfig returns the service configuration from --config and the flags
// overriding it.
func loadConfig(cmd *cobra.Command, f *flags) (formkit.Config, error) {
	cfg := formkit.DefaultConfig()
	if f.config != "" {
		loaded, err := formkit.LoadConfig(f.config)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if cfg.Title == formkit.DefaultConfig().Title {
		cfg.Title = "M3DIS launcher"
	}
	// input paths are typed relative to the run directory
	if cfg.CompletionRoot == formkit.DefaultConfig().CompletionRoot {
		cfg.CompletionRoot = f.runDir
	}
	return cfg, nil
}

func loadOverrides(path string) (layout.Document, error) {
	if path == "" {
		return layout.Document{}, nil
	}
	return layout.Load(path)
}

func runServe(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	overrides, err := loadOverrides(f.params)
	if err != nil {
		return err
	}

	srv, err := formkit.NewService(newLayout(overrides), newLaunchAction(f.runDir), cfg)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		srv.Stop()
		return err
	}
	srv.WaitForInterrupt()
	srv.Stop()
	return nil
}

// runWrite validates the forms built from the defaults and overrides and
// writes the namelist directly.
func runWrite(cmd *cobra.Command, f *flags) error {
	overrides, err := loadOverrides(f.params)
	if err != nil {
		return err
	}
	logger := log.New(cmd.ErrOrStderr(), "", 0)
	masonry, err := newLayout(overrides)(&formkit.Env{Logger: logger})
	if err != nil {
		return err
	}
	defer masonry.Close()

	if f.name != "" {
		for _, fm := range masonry.Forms() {
			if fm.Title() == launchTitle {
				fm.Set("name", f.name)
			}
		}
	}

	values, err := masonry.CheckAndReturnValues()
	if err != nil {
		return err
	}
	launch := values[launchTitle]
	msgs, err := launchNamelist(f.runDir, launch.String("name"), f.overwrite || launch.Bool("overwrite"), f.verbose || launch.Bool("verbose"), values)
	for _, m := range msgs {
		fmt.Fprintln(cmd.OutOrStdout(), m)
	}
	return err
}

func runJobs(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	conn, err := db.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	jobs, err := conn.AllJobs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tSTATUS\tSUBMITTED\tSESSION")
	for _, j := range jobs {
		status := "queued"
		switch {
		case j.Error != "":
			status = "error: " + j.Error
		case j.IsFinished():
			status = "done"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", j.ID, j.Label, status, j.SubmitTime.Format("2006-01-02 15:04:05"), j.SessionID)
	}
	return tw.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
