package web

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 0; color: #111827; }
        main { max-width: 72rem; margin: 0 auto; padding: 2rem 1rem; }
        h1 { font-size: 2.25rem; font-weight: 700; text-align: center; margin-bottom: 2rem; }
        form { display: flex; flex-wrap: wrap; gap: 1rem; margin-bottom: 1rem; }
        input[type=text] { flex-grow: 1; padding: 0.5rem 0.75rem; border: 1px solid #d1d5db; border-radius: 0.375rem; }
        select { width: 180px; padding: 0.5rem; border: 1px solid #d1d5db; border-radius: 0.375rem; }
        .count { font-size: 0.875rem; color: #6b7280; margin-bottom: 1.5rem; }
        .banner { background: #fef2f2; border: 1px solid #fecaca; color: #991b1b; padding: 0.75rem 1rem; border-radius: 0.375rem; margin-bottom: 1.5rem; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(20rem, 1fr)); gap: 1.5rem; }
        .card { border: 1px solid #e5e7eb; border-radius: 0.5rem; padding: 1.25rem; }
        .card h2 { font-size: 1.125rem; font-weight: 600; margin: 0 0 0.75rem; }
        .card .authors { font-size: 0.875rem; color: #6b7280; margin-bottom: 0.5rem; }
        .card p { font-size: 0.875rem; margin: 0 0 0.5rem; }
        .card a { color: #2563eb; }
    </style>
</head>
<body>
<main>
    <h1>{{.Title}}</h1>

    {{if .Error}}
    <div class="banner" role="alert">Could not load papers: {{.Error}}</div>
    {{else if .Pending}}
    <div class="banner" role="status">Papers are loading&hellip;</div>
    {{end}}

    <form id="filters" method="get" action="/">
        <input type="text" name="q" placeholder="Search papers..." value="{{.Search}}" autocomplete="off">
        {{range .Selects}}
        <select name="{{.Name}}" aria-label="Filter by {{.Name}}">
            <option value="all">{{.AllLabel}}</option>
            {{range .Options}}
            <option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
            {{end}}
        </select>
        {{end}}
        <noscript><button type="submit">Filter</button></noscript>
    </form>

    <div class="count">{{.Matched}} of {{.Total}} papers{{if .Filtered}} &middot; <a href="/">Clear filters</a>{{end}}</div>

    <div class="grid">
        {{range .Cards}}
        <div class="card">
            <h2>{{if .Link}}<a href="{{.Link}}" rel="noopener">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h2>
            <div class="authors">{{.Authors}}</div>
            {{range .Details}}
            <p>{{.Label}}: {{.Value}}</p>
            {{end}}
        </div>
        {{end}}
    </div>
</main>
<script>
(function () {
    var form = document.getElementById('filters');
    var timer;
    form.addEventListener('change', function () { form.submit(); });
    form.q.addEventListener('input', function () {
        clearTimeout(timer);
        timer = setTimeout(function () { form.submit(); }, 300);
    });
    form.q.focus();
    form.q.setSelectionRange(form.q.value.length, form.q.value.length);
    {{if .EventsURL}}
    if (window.EventSource) {
        var events = new EventSource('{{.EventsURL}}');
        events.addEventListener('view.refresh', function () { window.location.reload(); });
    }
    {{end}}
})();
</script>
</body>
</html>
`
