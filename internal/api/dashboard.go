// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

// dashboardHTML is the single-page dashboard served on "/". It renders
// the two channels from the JSON API; no template engine involved.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Alert Receiver</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
  h1 { font-size: 1.4rem; }
  nav button { margin-right: .5rem; padding: .4rem .8rem; cursor: pointer; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { border: 1px solid #ccc; padding: .4rem .6rem; text-align: left;
           font-size: .85rem; vertical-align: top; }
  th { background: #f3f3f3; }
  .muted { color: #777; font-size: .8rem; }
  pre { margin: 0; white-space: pre-wrap; max-width: 40rem; }
</style>
</head>
<body>
<h1>Unified Alert Receiver</h1>
<p class="muted">HTTP alerts via POST /api/alerts &middot; emails via authenticated SMTP</p>
<nav>
  <button onclick="show('alerts')">Alerts</button>
  <button onclick="show('emails')">Emails</button>
  <button onclick="refresh()">Refresh</button>
</nav>
<div id="stats" class="muted"></div>
<div id="content"></div>
<script>
let tab = 'alerts';

function show(t) { tab = t; refresh(); }

async function refresh() {
  const list = await (await fetch('/api/' + tab + '?limit=50')).json();
  const stats = await (await fetch('/api/' + tab + '/stats')).json();
  document.getElementById('stats').textContent =
    'total received: ' + stats.total_received + ' | showing: ' + list.total;
  document.getElementById('content').innerHTML =
    tab === 'alerts' ? alertTable(list.alerts) : emailTable(list.emails);
}

function esc(s) {
  return String(s ?? '').replace(/[&<>"]/g,
    c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;'}[c]));
}

function alertTable(rows) {
  return '<table><tr><th>ID</th><th>Time</th><th>Source</th><th>Payload</th></tr>' +
    rows.map(a => '<tr><td>' + a.id + '</td><td>' + esc(a.timestamp) +
      '</td><td>' + esc(a.received_from) + '</td><td><pre>' +
      esc(JSON.stringify(a.data, null, 1)) + '</pre></td></tr>').join('') +
    '</table>';
}

function emailTable(rows) {
  return '<table><tr><th>ID</th><th>Time</th><th>From</th><th>Subject</th><th>Body</th></tr>' +
    rows.map(e => '<tr><td>' + e.id + '</td><td>' + esc(e.timestamp) +
      '</td><td>' + esc(e.from) + '</td><td>' + esc(e.subject) +
      '</td><td><pre>' + esc(e.body) + '</pre></td></tr>').join('') +
    '</table>';
}

refresh();
</script>
</body>
</html>
`
