package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/G-Node/formkit/formkit/form"
	"github.com/G-Node/formkit/formkit/worker"
)

var (
	// ErrExists is returned when the namelist file exists and overwrite is off.
	ErrExists = errors.New("namelist file exists")
	// ErrBadName is returned for run names that are not a plain file name.
	ErrBadName = errors.New("invalid run name")
)

// group is one namelist group with its entries sorted by name.
type group struct {
	name   string
	values form.Values
}

// truthy reports whether v is kept in the namelist.  False, zero and empty
// values are left to the program defaults.
func truthy(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	}
	return true
}

// groups keeps the truthy values of each section.  Sections without any
// are dropped.
func groups(values map[string]form.Values) []group {
	out := make([]group, 0, len(sections))
	for _, title := range sections {
		kept := make(form.Values)
		for k, v := range values[title] {
			if truthy(v) {
				kept[k] = v
			}
		}
		if len(kept) > 0 {
			out = append(out, group{name: title, values: kept})
		}
	}
	return out
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case bool:
		if v {
			return ".true."
		}
		return ".false."
	case int:
		return strconv.Itoa(v)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return fmt.Sprintf("'%v'", v)
}

// writeNamelist writes the groups in Fortran namelist format.
func writeNamelist(w io.Writer, groups []group) error {
	bw := bufio.NewWriter(w)
	for _, g := range groups {
		keys := make([]string, 0, len(g.values))
		for k := range g.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(bw, "&%s\n", g.name)
		for _, k := range keys {
			fmt.Fprintf(bw, "  %s = %s\n", k, formatValue(g.values[k]))
		}
		fmt.Fprint(bw, "/\n\n")
	}
	return bw.Flush()
}

// newLaunchAction returns the job action writing <name>.nml into runDir.
func newLaunchAction(runDir string) worker.JobAction {
	return func(values map[string]form.Values) ([]string, error) {
		launch := values[launchTitle]
		name := launch.String("name")
		if name == "" {
			return []string{"Please enter a name for the input file."}, errors.New("no input file name")
		}
		return launchNamelist(runDir, name, launch.Bool("overwrite"), launch.Bool("verbose"), values)
	}
}

// namelistPath returns the file written for a run.  The name comes from the
// browser and must stay a single file name inside runDir.
func namelistPath(runDir, name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	path := filepath.Join(runDir, name+".nml")
	rel, err := filepath.Rel(runDir, path)
	if err != nil || rel != filepath.Base(path) {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return path, nil
}

func launchNamelist(runDir, name string, overwrite, verbose bool, values map[string]form.Values) ([]string, error) {
	msgs := make([]string, 0)
	path, err := namelistPath(runDir, name)
	if err != nil {
		msgs = append(msgs, "The run name must be a plain file name without directories.")
		return msgs, err
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		msgs = append(msgs, fmt.Sprintf("%s exists; enable overwrite to replace it", path))
		return msgs, fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return msgs, err
	}

	nml := groups(values)
	f, err := os.Create(path)
	if err != nil {
		return msgs, err
	}
	if err := writeNamelist(f, nml); err != nil {
		f.Close()
		return msgs, err
	}
	if err := f.Close(); err != nil {
		return msgs, err
	}

	msgs = append(msgs, fmt.Sprintf("Wrote %s", path))
	for _, g := range nml {
		msgs = append(msgs, fmt.Sprintf("%s: %d values", g.name, len(g.values)))
		if !verbose {
			continue
		}
		keys := make([]string, 0, len(g.values))
		for k := range g.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msgs = append(msgs, fmt.Sprintf("  %s = %s", k, formatValue(g.values[k])))
		}
	}
	return msgs, nil
}
