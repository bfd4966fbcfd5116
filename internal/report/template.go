package report

// PageTemplate is the HTML template of the dashboard page. It is embedded as
// a Go constant; static assets are served from web/static.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/app.css">
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --highlight: #fef08a;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    display: flex;
    min-height: 100vh;
  }
  h1, h2, h3 { font-weight: 600; }
  h3 { font-size: 1.1rem; text-align: center; margin: 12px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Sidebar */
  .sidebar {
    width: 280px;
    background: var(--section-bg);
    border-right: 1px solid var(--border);
    padding: 20px;
  }
  .sidebar h2 { font-size: 1rem; margin-bottom: 8px; }
  .sidebar hr { border: 0; border-top: 1px solid var(--border); margin: 16px 0; }
  .sidebar label { display: block; margin: 4px 0; cursor: pointer; }

  /* Main */
  main { flex: 1; padding: 20px; max-width: 1000px; }
  select { padding: 4px 8px; min-width: 200px; }
  .chart-container { margin: 12px 0; }
  .chart-container iframe { width: 100%; border: 0; }
  .empty {
    background: var(--section-bg);
    padding: 40px;
    text-align: center;
    color: var(--muted);
    border-radius: 8px;
  }

  /* Expander */
  details { margin: 16px 0; border: 1px solid var(--border); border-radius: 6px; padding: 8px 12px; }
  summary { cursor: pointer; font-weight: 600; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: right; padding: 6px 8px; font-weight: 600; }
  td { padding: 6px 8px; border-bottom: 1px solid var(--border); text-align: right; }
  td.max { background: var(--highlight); }
  pre { background: #0f172a; color: #e2e8f0; padding: 12px; border-radius: 6px; overflow-x: auto; font-size: 0.85rem; }

  .footer { margin-top: 30px; font-size: 0.8rem; color: var(--muted); text-align: center; }
</style>
</head>
<body>

<!-- ═══════ SIDEBAR ═══════ -->
<form class="sidebar" id="selection" method="get" action="/">
  <h2>Filter dashboards here</h2>
  <p class="muted">Select a dashboard</p>
  {{range .Views}}
  <label><input type="radio" name="view" value="{{.Key}}"{{if .Selected}} checked{{end}}> {{.Label}}</label>
  {{end}}
  <hr>
  <h2>Want to download the data?</h2>
  <a id="download" href="{{.DataURI}}" download="{{.ExportName}}">Click to download</a>
  <p class="muted"><a href="/api/v1/export.xlsx">Excel workbook</a></p>
  <hr>
  {{if .Credits}}
  <p id="credits"><b>Contributed by:</b><br><i>{{.Credits}}</i></p>
  {{end}}
  {{if .SourceURL}}
  <p id="resources">Github resources <a href="{{.SourceURL}}" target="_blank" rel="noopener">link</a></p>
  {{end}}
  {{if or .Credits .SourceURL}}<hr>{{end}}
  <noscript><button type="submit">Show</button></noscript>
</form>

<!-- ═══════ MAIN ═══════ -->
<main>
  <h3 id="view-title">{{.Heading}}</h3>
  <hr>
  <p>
    <label for="crop">Select a crop</label><br>
    <select id="crop" name="crop" form="selection">
      {{range .Crops}}
      <option value="{{.Name}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
      {{end}}
    </select>
  </p>

  {{if .Message}}
  <div class="empty" id="message">{{.Message}}</div>
  {{else}}
  {{range .ChartURLs}}
  <div class="chart-container"><iframe src="{{.}}" height="{{$.ChartHeight}}" title="chart"></iframe></div>
  {{end}}
  {{end}}

  <details class="more"{{if or .ShowData .ShowCode}} open{{end}}>
    <summary>Expand to see more</summary>
    <label><input type="checkbox" name="data" value="1" form="selection"{{if .ShowData}} checked{{end}}> Show dataframe</label>
    <label><input type="checkbox" name="code" value="1" form="selection"{{if .ShowCode}} checked{{end}}> Show code</label>

    {{if .Table}}
    <table id="data">
      <thead><tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}</tr></thead>
      <tbody>
      {{range .Table.Rows}}
      <tr>{{range .}}<td{{if .Max}} class="max"{{end}}>{{.Text}}</td>{{end}}</tr>
      {{end}}
      </tbody>
    </table>
    {{end}}

    {{if .Snippet}}
    <pre id="code"><code>{{.Snippet}}</code></pre>
    {{end}}
  </details>

  <div class="footer">
    <p>Generated on {{.GeneratedAt}}</p>
  </div>
</main>

<script src="/static/app.js"></script>
</body>
</html>`
