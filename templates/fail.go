package templates

// Fail renders an error page with a link back to the forms.
const Fail = `
{{ define "content" }}
<div class="ifk-fail">
	<h2>{{ .StatusCode }} {{ .StatusText }}</h2>
	<p class="ifk-fail-message">{{ .Message }}</p>
	<p><a href="/">Back to the forms</a> &middot; <a href="/log">Job log</a></p>
</div>
{{ end }}
`
