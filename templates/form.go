package templates

// Widgets renders a form tree.  The data is a *form.View.
const Widgets = `
{{ define "widgets" }}
{{- range .Stylesheets }}
<style data-sheet="{{.Name}}">{{.CSS}}</style>
{{- end }}
<div class="ifk-container{{if .Masonry}} ifk-masonry{{end}}">
	{{- range .Forms }}
	<div class="ifk-form-root" data-form="{{.ID}}" style="max-width: {{.MaxWidth}}px">
		{{ template "ifk-node" .Root }}
	</div>
	{{- end }}
</div>
{{ end }}

{{ define "ifk-node" }}
{{- if eq .Kind "title" }}
	<div class="{{.Classes}}">{{.Title}}</div>
{{- else if eq .Kind "row" }}
	<div class="{{.Classes}}">
		{{- range .Children }}{{ template "ifk-node" . }}{{ end }}
	</div>
{{- else if eq .Kind "leaf" }}
	{{ template "ifk-leaf" .Field }}
{{- else }}
	<div class="ifk-vbox {{.Classes}}">
	{{- if .Toggle }}
		<details class="ifk-collapsible"{{if .Open}} open{{end}}>
			<summary class="ifk-form-toggle-button"><span class="ifk-widget-label">{{.Title}}</span></summary>
			{{- range .Children }}{{ template "ifk-node" . }}{{ end }}
		</details>
	{{- else }}
		{{- range .Children }}{{ template "ifk-node" . }}{{ end }}
	{{- end }}
	</div>
{{- end }}
{{ end }}

{{ define "ifk-label" }}
		<div class="ifk-label-row">
			<label class="ifk-label" for="{{.ID}}">{{.Label}}</label>
			{{- if .Tooltip }}
			<div class="ifk-tooltip">?<span class="ifk-tooltip-text">{{.Tooltip}}</span></div>
			{{- end }}
		</div>
{{ end }}

{{ define "ifk-leaf" }}
	<div class="{{.BoxClasses}}" id="box-{{.ID}}" data-form="{{.FormID}}" data-field="{{.Name}}"{{if .Hidden}} style="display: none"{{end}}>
	{{- if eq .Kind "button" }}
		<button type="button" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="button"{{if .Disabled}} disabled{{end}}>{{.Name}}</button>
	{{- else if eq .Kind "checkbox" }}
		<input type="checkbox" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="checkbox"{{if .Checked}} checked{{end}}{{if .Disabled}} disabled{{end}}>
		{{ template "ifk-label" . }}
	{{- else }}
		{{ template "ifk-label" . }}
		{{- if eq .Kind "int" }}
		<input type="number" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="int" step="1" value="{{.Value}}"{{if .Disabled}} disabled{{end}}>
		{{- else if eq .Kind "float" }}
		<input type="number" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="float" step="{{.Step}}" value="{{.Value}}"{{if .Disabled}} disabled{{end}}>
		{{- else if eq .Kind "password" }}
		<input type="password" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="password" placeholder="{{.Placeholder}}" value="{{.Value}}" autocomplete="off"{{if .Disabled}} disabled{{end}}>
		{{- else if eq .Kind "textarea" }}
		<textarea id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="textarea" placeholder="{{.Placeholder}}"{{if .Disabled}} disabled{{end}}>{{.Value}}</textarea>
		{{- else if eq .Kind "file" }}
		<input type="text" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="file" placeholder="{{.Placeholder}}" value="{{.Value}}" list="list-{{.ID}}" autocomplete="off"{{if .Disabled}} disabled{{end}}>
		<datalist id="list-{{.ID}}"></datalist>
		{{- else if eq .Kind "text" }}
		<input type="text" id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="text" placeholder="{{.Placeholder}}" value="{{.Value}}"{{if .Disabled}} disabled{{end}}>
		{{- else if eq .Kind "dropdown" }}
		<select id="{{.ID}}" class="{{.Classes}}" name="{{.Name}}" data-kind="dropdown"{{if .Disabled}} disabled{{end}}>
			{{- range .Options }}
			<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
			{{- end }}
		</select>
		{{- else }}
		<span class="ifk-info">{{.Text}}</span>
		{{- end }}
	{{- end }}
	</div>
{{ end }}
`

// Page is the main form page of the service.  It shows the forms and, for
// services with a job action, the launch button.
const Page = `
{{ define "content" }}
			<div class="ifk-page">
				<form class="ui form" action="/" method="post" novalidate>
					{{ template "widgets" .view }}
					{{- if .rejected }}
					<div class="ui negative message ifk-rejected">{{.rejected}}</div>
					{{- end }}
					{{- if .launch }}
					<div class="inline field ifk-launch">
						<button class="ui green button" type="submit">{{.launch}}</button>
					</div>
					{{- end }}
				</form>
			</div>
{{ end }}
`
