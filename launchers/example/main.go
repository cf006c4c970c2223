package main

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/G-Node/formkit/formkit"
	"github.com/G-Node/formkit/formkit/form"
)

// demoSpec has one field of every control kind.
var demoSpec = form.Spec{
	form.Field("description", "Describe the job..."),
	form.Row([]string{"name", "password"}, "example", "hunter2"),
	form.Row([]string{"duration", "scale"}, 0, 1.5),
	form.Field("slow", false),
	form.Field("input_file", filepath.Join(".", "input", "data.txt")),
	form.Field("mode", form.Choices{"fast", "accurate", "error"}),
	form.Field("nothing", form.Choices{}),
	form.Group("advanced", form.Spec{
		form.Row([]string{"retries", "verbose"}, 1, false),
		form.Field("reset", nil),
	}),
}

func layout(env *formkit.Env) (*form.Masonry, error) {
	demo, err := form.New(demoSpec, env.Options(form.Options{
		Title:     "formkit example form",
		Collapse:  form.Expanded,
		Mandatory: []string{"name"},
		Tooltips: map[string]string{
			"duration": "Seconds to wait before finishing the job.  Use for simulating long-running jobs.",
			"mode":     "Selecting 'error' makes the job fail",
		},
		Disable: form.Conditions{
			"duration": func(v form.Values) bool { return !v.Bool("slow") },
		},
		Hide: form.Conditions{
			"retries": func(v form.Values) bool { return v.String("mode") == "fast" },
		},
		Check: form.Conditions{
			"scale": func(v form.Values) bool { return v.Float("scale") > 0 },
		},
	}))
	if err != nil {
		return nil, err
	}
	if reset, ok := demo.Control("reset"); ok {
		reset.OnClick(func() {
			demo.SetValues(form.Spec{
				form.Row([]string{"duration", "scale"}, 0, 1.5),
				form.Field("slow", false),
				form.Field("mode", "fast"),
			})
		})
	}
	return form.NewMasonry(demo)
}

func main() {
	config := formkit.DefaultConfig()
	config.Title = "formkit example"
	config.CookieName = "formkit-example"
	config.DBPath = "./example.db"

	srv, err := formkit.NewService(layout, exampleFunc, config)
	if err != nil {
		log.Fatal(err)
	}
	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
	defer srv.Stop()
	srv.WaitForInterrupt()
}

func exampleFunc(values map[string]form.Values) ([]string, error) {
	v := values["formkit example form"]
	msgs := make([]string, 0, len(v)+2)

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("Example function got %s: %v", k, v[k]))
	}

	if d := v.Int("duration"); d > 0 {
		msgs = append(msgs, fmt.Sprintf("Waiting %d seconds", d))
		time.Sleep(time.Second * time.Duration(d))
	}

	if v.String("mode") == "error" {
		msgs = append(msgs, "Found 'error' mode. Stopping.")
		return msgs, fmt.Errorf("Failed to run: error mode selected")
	}
	msgs = append(msgs, "All OK. Example function finished successfully.")
	return msgs, nil
}
