package templates

// Layout is the main site template. It includes the header and footer and
// embeds the content for every other page.
var Layout = `
{{ define "layout" }}
<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8">
		<link rel="stylesheet" href="/assets/widgets.css">
		<link rel="stylesheet" href="/assets/formkit.css">
		<title>{{if .title}}{{.title}}{{else}}formkit{{end}}</title>
	</head>
	<body>
		<div class="full height">
			<div class="following bar light">
				<div class="ui container">
					<div class="ui top secondary menu">
						<a class="item" href="/">New</a>
						<a class="item" href="/log">Jobs</a>
					</div>
				</div>
			</div>
			{{ template "content" . }}
		</div>
		<footer>
			<div class="ui container footertext">formkit</div>
		</footer>
		<script src="/assets/formkit.js" defer></script>
	</body>
</html>
{{ end }}
`
