package api

import "html/template"

// indexTemplate is the minimal query form. The real presentation is
// whatever the caller builds on the JSON API; this page exists so the
// service is usable from a browser with nothing else deployed.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Stock Researcher</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
textarea, input { width: 100%; box-sizing: border-box; margin-bottom: 0.75rem; padding: 0.5rem; }
button { padding: 0.5rem 1.5rem; }
pre { white-space: pre-wrap; background: #f6f6f6; padding: 1rem; }
.verdict { font-weight: bold; font-size: 1.25rem; }
.errors { color: #a00; }
</style>
</head>
<body>
<h1>Stock Researcher</h1>
<form id="research-form">
<textarea name="query" rows="3" placeholder="e.g. Should I invest in TSLA?" required></textarea>
<input name="secret" type="password" placeholder="Access secret">
<button type="submit">Research</button>
</form>
<div id="result" hidden>
<p class="verdict" id="verdict"></p>
<p id="sentiment"></p>
<pre id="report"></pre>
<p class="errors" id="errors"></p>
<p><a id="download" href="#">Download report</a></p>
</div>
<script>
document.getElementById('research-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const form = new FormData(e.target);
  const resp = await fetch('/api/research', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({query: form.get('query'), secret: form.get('secret')})
  });
  const data = await resp.json();
  const result = document.getElementById('result');
  result.hidden = false;
  if (!resp.ok) {
    document.getElementById('verdict').textContent = '';
    document.getElementById('report').textContent = '';
    document.getElementById('sentiment').textContent = '';
    document.getElementById('errors').textContent = data.error || 'request failed';
    return;
  }
  document.getElementById('verdict').textContent = data.ticker + ': ' + data.recommendation;
  document.getElementById('sentiment').textContent = 'Sentiment score: ' + data.sentiment_score.toFixed(2);
  document.getElementById('report').textContent = data.report || '';
  document.getElementById('errors').textContent = (data.errors || []).join('; ');
  document.getElementById('download').href = '/api/research/' + data.ticker + '/report?secret=' + encodeURIComponent(form.get('secret'));
});
</script>
</body>
</html>
`))
