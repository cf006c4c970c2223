package main

import (
	"path/filepath"

	"github.com/G-Node/formkit/formkit"
	"github.com/G-Node/formkit/formkit/form"
	"github.com/G-Node/formkit/formkit/layout"
)

// Titles of the parameter sections in launch order.  Each becomes a namelist
// group of the same name.
var sections = []string{"atmos_params", "atom_params", "m3d_params", "composition_params", "spectrum_params"}

// launchTitle is the form holding the run name and launch switches.
const launchTitle = "launch"

var quadratureSchemes = form.Choices{"radau", "lobatto", "gauss", "disk_center", "set_a2", "set_a4", "set_a6", "set_a8", "set_b4", "set_b6", "set_b8"}

func input(parts ...string) string {
	return "." + string(filepath.Separator) + filepath.Join(append([]string{"input_multi3d"}, parts...)...)
}

// defaults returns the parameter sections with their default values.
func defaults() map[string]form.Spec {
	longSchemes := append(form.Choices{"radau", "lobatto", "gauss", "custom"}, quadratureSchemes[3:]...)
	return map[string]form.Spec{
		"atmos_params": {
			form.Row([]string{"atmos_format", "atmos_file"},
				form.Choices{"Marcs", "Stagger", "Stagger2", "Co5bold", "Text"},
				input("atmos", "p5777_g+4.4_m0.0_t01_st_z+0.00_a+0.00_c+0.00_n+0.00_o+0.00_r+0.00_s+0.00.mod")),
			form.Row([]string{"vmic", "FeH"}, -1.0, 0.0),
			form.Row([]string{"nx", "ny", "nz"}, 1, 1, 128),
			form.Group("advanced", form.Spec{
				form.Field("dims", 8),
				form.Row([]string{"use_rho", "use_ne"}, true, true),
			}),
		},
		"atom_params": {
			form.Field("atom_file", input("atoms", "atom.ba06")),
			form.Row([]string{"abundance", "relative_abundance"}, 2.11, false),
			form.Group("advanced", form.Spec{
				form.Row([]string{"convlim", "convmax"}, 1e-2, 1e-3),
			}),
		},
		"m3d_params": {
			form.Row([]string{"maxiter", "ng_step"}, 99, -1),
			form.Field("custom_mu", "1.0 0.8 0.6 0.4 0.2"),
			form.Group("advanced", form.Spec{
				form.Row([]string{"m1d_legacy_mode", "decouple_continuum"}, false, true),
				form.Row([]string{"rotate_atmos", "rotate_continuum"}, true, true),
				form.Row([]string{"short_scheme", "short_ntheta", "short_nphi"}, quadratureSchemes, 2, 4),
				form.Row([]string{"long_scheme", "long_ntheta", "long_nphi"}, longSchemes, 4, 4),
			}),
		},
		"composition_params": {
			form.Field("abundance", "C=8.52, O=8.75, Ni=6.22"),
			form.Field("absmet_file", input("absmet")),
			form.Group("advanced", form.Spec{
				form.Field("abund_file", input("abund", "abund_magg")),
			}),
		},
		"spectrum_params": {
			form.Row([]string{"aa_blue", "aa_red", "R"}, 4200, 4300, 1e5),
			form.Field("lam_file", "."+string(filepath.Separator)+"file_with_wavelengths.txt"),
		},
	}
}

// options returns the conditions and tooltips of a section.
func options(title string) form.Options {
	opts := form.Options{Title: title}
	switch title {
	case "atmos_params":
		opts.Check = form.Conditions{
			"nx": func(v form.Values) bool { return v.Int("nx") > 0 },
			"ny": func(v form.Values) bool { return v.Int("ny") > 0 },
			"nz": func(v form.Values) bool { return v.Int("nz") > 0 },
		}
		opts.Tooltips = map[string]string{"vmic": "Microturbulence in km/s; negative keeps the model value"}
	case "atom_params":
		opts.Tooltips = map[string]string{"relative_abundance": "Treat abundance as relative to the solar value"}
	case "m3d_params":
		opts.Disable = form.Conditions{
			"custom_mu": func(v form.Values) bool { return v.String("long_scheme") != "custom" },
		}
		opts.Hide = form.Conditions{
			"short_ntheta": func(v form.Values) bool { return v.String("short_scheme") == "disk_center" },
			"short_nphi":   func(v form.Values) bool { return v.String("short_scheme") == "disk_center" },
			"long_ntheta":  func(v form.Values) bool { return v.String("long_scheme") == "disk_center" },
			"long_nphi":    func(v form.Values) bool { return v.String("long_scheme") == "disk_center" },
		}
		opts.Check = form.Conditions{
			"maxiter": func(v form.Values) bool { return v.Int("maxiter") > 0 },
		}
	case "spectrum_params":
		opts.Check = form.Conditions{
			"aa_red": func(v form.Values) bool { return v.Int("aa_red") > v.Int("aa_blue") },
			"R":      func(v form.Values) bool { return v.Float("R") > 0 },
		}
	}
	return opts
}

// newLayout returns the LayoutFunc of the launcher.  Values in overrides
// replace the defaults of the section with the same title.
func newLayout(overrides layout.Document) formkit.LayoutFunc {
	return func(env *formkit.Env) (*form.Masonry, error) {
		specs := defaults()
		forms := make([]*form.Form, 0, len(sections)+1)
		for _, title := range sections {
			f, err := form.New(specs[title], env.Options(options(title)))
			if err != nil {
				return nil, err
			}
			if override, ok := overrides.Section(title); ok {
				f.SetValues(override)
			}
			forms = append(forms, f)
		}

		launch, err := form.New(form.Spec{
			form.Field("name", "ba_test1"),
			form.Row([]string{"overwrite", "verbose"}, false, false),
		}, env.Options(form.Options{
			Title:     launchTitle,
			Mandatory: []string{"name"},
			Tooltips:  map[string]string{"name": "Name of the namelist file written to the run directory"},
		}))
		if err != nil {
			return nil, err
		}
		if override, ok := overrides.Section(launchTitle); ok {
			launch.SetValues(override)
		}
		forms = append(forms, launch)
		return form.NewMasonry(forms...)
	}
}
