package templates

// LogView template for displaying the job log in a list.
const LogView = `
{{define "content"}}
	<div class="ui container ifk-log">
		<p class="ifk-log-desc">Job log</p>
		<table class="ui unstackable fixed single line table">
			<thead>
				<tr>
					<th class="two wide">ID</th>
					<th class="four wide">Label</th>
					<th class="four wide">Submitted</th>
					<th class="four wide">Finished</th>
					<th class="four wide">Status</th>
				</tr>
			</thead>
			<tbody>
				{{range $job := .jobs}}
					<tr>
						<td class="name two wide">J{{$job.ID}}</td>
						<td class="name text bold four wide"><a href="/log/{{$job.ID}}">{{$job.Label}}</a></td>
						<td class="name four wide">{{$job.SubmitTime.Format $.timefmt}}</td>
						<td class="name four wide">{{if $job.IsFinished}}{{$job.EndTime.Format $.timefmt}}{{end}}</td>
						<td class="name four wide">{{if $job.Error}}<span class="ifk-job-error">{{$job.Error}}</span>{{else if $job.IsFinished}}done{{else}}queued{{end}}</td>
					</tr>
				{{else}}
					<tr><td colspan="5">No jobs launched yet.</td></tr>
				{{end}}
			</tbody>
		</table>
	</div>
{{end}}
`

// JobView shows the values, messages and outcome of a single job.
const JobView = `
{{define "content"}}
	<div class="ui container ifk-job">
		<h2>J{{.job.ID}}: {{.job.Label}}</h2>
		<p>Submitted {{.submit_time}}{{if .end_time}}, finished {{.end_time}}{{end}}</p>
		{{- if .job.Error }}
		<div class="ui negative message ifk-job-error">{{.job.Error}}</div>
		{{- end }}
		<table class="ui definition table ifk-job-values">
			<tbody>
				{{- range .values }}
				<tr><td>{{.Key}}</td><td>{{.Value}}</td></tr>
				{{- end }}
			</tbody>
		</table>
		{{- if .job.Messages }}
		<pre class="ifk-job-messages">{{range .job.Messages}}{{.}}
{{end}}</pre>
		{{- end }}
	</div>
{{end}}
`
