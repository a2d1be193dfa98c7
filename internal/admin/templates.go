package admin

import "html/template"

var indexTemplate = template.Must(template.New("admin-index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Experiments Viewer administration</title>
</head>
<body>
<header>
<p>Signed in as {{.User.Email}}</p>
<form method="post" action="{{.LogoutPath}}">{{.CSRFField}}<button type="submit">Log out</button></form>
<a href="{{.MetricsPath}}">Request metrics</a>
</header>
<h1>Experiments</h1>
<table>
<thead><tr><th>Name</th><th>Slug</th><th>Enabled</th><th></th></tr></thead>
<tbody>
{{- range .Experiments}}
<tr>
<td>{{.Name}}</td>
<td>{{.Slug}}</td>
<td>{{if .Enabled}}yes{{else}}no{{end}}</td>
<td>
<form method="post" action="{{.TogglePath}}">
{{$.CSRFField}}
<input type="hidden" name="enabled" value="{{if .Enabled}}false{{else}}true{{end}}">
<button type="submit">{{if .Enabled}}Disable{{else}}Enable{{end}}</button>
</form>
</td>
</tr>
{{- else}}
<tr><td colspan="4">No experiments.</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))
