package server

// DashboardHTML is the embedded single-page decision viewer. It connects to
// /ws and renders allow/deny events as they happen.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>limitr</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace;
    background: #101418; color: #d5dbe1; padding: 24px;
  }
  h1 { font-size: 1.4em; color: #7aa2f7; }
  .sub { color: #7a8490; font-size: 0.85em; margin-bottom: 18px; }
  .cards { display: flex; gap: 12px; margin-bottom: 18px; flex-wrap: wrap; }
  .card {
    background: #171c22; border: 1px solid #2a323c; border-radius: 6px;
    padding: 14px 22px; min-width: 130px; text-align: center;
  }
  .card .n { font-size: 1.8em; font-weight: 700; }
  .n.ok { color: #9ece6a; }
  .n.no { color: #f7768e; }
  .n.sum { color: #7aa2f7; }
  .card .l { font-size: 0.75em; color: #7a8490; text-transform: uppercase; margin-top: 4px; }
  #conn { font-size: 0.8em; margin-bottom: 12px; }
  #conn.up { color: #9ece6a; }
  #conn.down { color: #f7768e; }
  #log {
    background: #171c22; border: 1px solid #2a323c; border-radius: 6px;
    max-height: 480px; overflow-y: auto; font-size: 0.85em;
  }
  .row {
    display: grid; grid-template-columns: 110px 140px 1fr 70px 90px;
    padding: 7px 14px; border-bottom: 1px solid #1f262e; align-items: center;
  }
  .row:hover { background: #1b222a; }
  .tag { padding: 2px 8px; border-radius: 10px; font-size: 0.75em; font-weight: 600; }
  .tag.allow { background: #1d2a1f; color: #9ece6a; }
  .tag.deny { background: #2e1b20; color: #f7768e; }
  .key { color: #bb9af7; }
  .t { color: #7a8490; }
  .empty { text-align: center; padding: 50px; color: #7a8490; }
</style>
</head>
<body>
<h1>limitr</h1>
<p class="sub">live admission decisions</p>
<div id="conn" class="down">disconnected</div>

<div class="cards">
  <div class="card"><div class="n sum" id="c-total">0</div><div class="l">total</div></div>
  <div class="card"><div class="n ok" id="c-allowed">0</div><div class="l">allowed</div></div>
  <div class="card"><div class="n no" id="c-denied">0</div><div class="l">denied</div></div>
  <div class="card"><div class="n" id="c-rate">0%</div><div class="l">deny rate</div></div>
</div>

<div id="log"><div class="empty">waiting for events &mdash; hit /api/check/{key}</div></div>

<script>
let total = 0, allowed = 0, denied = 0;
const logDiv = document.getElementById('log');
const MAX_ROWS = 200;

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');
  ws.onopen = () => {
    const c = document.getElementById('conn');
    c.textContent = 'connected'; c.className = 'up';
  };
  ws.onclose = () => {
    const c = document.getElementById('conn');
    c.textContent = 'disconnected'; c.className = 'down';
    setTimeout(connect, 2000);
  };
  ws.onmessage = (e) => addEvent(JSON.parse(e.data));
}

function addEvent(ev) {
  const empty = logDiv.querySelector('.empty');
  if (empty) empty.remove();

  total++;
  if (ev.decision.allowed) allowed++; else denied++;
  document.getElementById('c-total').textContent = total;
  document.getElementById('c-allowed').textContent = allowed;
  document.getElementById('c-denied').textContent = denied;
  document.getElementById('c-rate').textContent =
    total ? ((denied / total) * 100).toFixed(1) + '%' : '0%';

  const row = document.createElement('div');
  row.className = 'row';
  const when = new Date(ev.time).toLocaleTimeString('en-US', {hour12: false});
  const tag = ev.decision.allowed
    ? '<span class="tag allow">ALLOW</span>'
    : '<span class="tag deny">DENY</span>';
  row.innerHTML =
    '<span class="t">' + when + '</span>' +
    '<span class="key">' + esc(ev.record.key) + '</span>' +
    '<span>' + esc(ev.record.endpoint) + '</span>' +
    '<span>' + tag + '</span>' +
    '<span>' + ev.decision.remaining + '/' + ev.decision.limit + '</span>';
  logDiv.insertBefore(row, logDiv.firstChild);
  while (logDiv.children.length > MAX_ROWS) logDiv.removeChild(logDiv.lastChild);
}

function esc(s) {
  const d = document.createElement('div');
  d.textContent = s == null ? '' : s;
  return d.innerHTML;
}

connect();
</script>
</body>
</html>`
