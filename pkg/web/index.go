package web

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Delicious Food</title>
<style>
  body { font-family: sans-serif; margin: 0; background: #fafafa; color: #222; }
  main { max-width: 640px; margin: 0 auto; padding: 16px; }
  #picture { width: 100%; min-height: 240px; background: #ddd; object-fit: contain; display: block; }
  #progress { display: none; margin: 12px 0; }
  #result { display: none; padding: 16px; margin: 12px 0; color: #fff; font-size: 1.4em; text-align: center; }
  #result.green { background: #2e7d32; }
  #result.red { background: #c62828; }
  #take { width: 100%; padding: 14px; font-size: 1.1em; margin-top: 12px; }
  #toast { position: fixed; bottom: 80px; left: 50%; transform: translateX(-50%); background: #333; color: #fff; padding: 8px 16px; border-radius: 16px; display: none; }
  #snackbar { position: fixed; bottom: 0; left: 0; right: 0; background: #323232; color: #fff; padding: 14px; display: none; }
  #snackbar button { float: right; color: #ffb300; background: none; border: none; font-weight: bold; }
  #consent { position: fixed; inset: 0; background: rgba(0,0,0,.5); display: none; }
  #consent div { background: #fff; margin: 20% auto; padding: 20px; max-width: 360px; }
</style>
</head>
<body>
<main>
  <img id="picture" alt="">
  <div id="progress">Looking for food...</div>
  <div id="result"></div>
  <button id="take">Take picture</button>
</main>
<div id="toast"></div>
<div id="snackbar"><span></span><button></button></div>
<div id="consent"><div>
  <p>Allow this app to store pictures and use the camera?</p>
  <button id="allow">Allow</button> <button id="deny">Deny</button>
</div></div>
<script>
const $ = (id) => document.getElementById(id);
let snackID = null, consentCode = null, toastTimer = null;

function post(url, body, method) {
  return fetch(url, { method: method || "POST", headers: { "Content-Type": "application/json" }, body: body ? JSON.stringify(body) : undefined });
}

function showImage(v) { if (v) $("picture").src = "/api/image?v=" + v; }
function showProgress(v) { $("progress").style.display = v ? "block" : "none"; }
function showResult(p) {
  const r = $("result");
  if (!p) { r.style.display = "none"; return; }
  r.className = p.color; r.textContent = p.text; r.style.display = "block";
}
function showSnackbar(sb) {
  const el = $("snackbar");
  if (!sb) { el.style.display = "none"; snackID = null; return; }
  snackID = sb.id;
  el.querySelector("span").textContent = sb.text;
  el.querySelector("button").textContent = sb.action;
  el.style.display = "block";
}
function showConsent(req) {
  consentCode = req ? req.code : null;
  $("consent").style.display = req ? "block" : "none";
}
function toast(text) {
  const el = $("toast");
  el.textContent = text; el.style.display = "block";
  clearTimeout(toastTimer);
  toastTimer = setTimeout(() => el.style.display = "none", 2000);
}

function handle(e) {
  switch (e.type) {
  case "state":
    showImage(e.state.image_version); showProgress(e.state.progress_visible);
    showResult(e.state.result); showSnackbar(e.state.snackbar); showConsent(e.state.permission);
    break;
  case "image": showImage(e.image); break;
  case "progress": showProgress(e.visible); break;
  case "result": showResult(e.panel); break;
  case "hide_result": showResult(null); break;
  case "toast": toast(e.text); break;
  case "snackbar": showSnackbar(e.snackbar); break;
  case "snackbar_dismissed": if (e.snackbar && e.snackbar.id === snackID) showSnackbar(null); break;
  case "permission_request": showConsent(e.request); break;
  case "permission_closed": showConsent(null); break;
  }
}

function connect() {
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/ui");
  ws.onmessage = (m) => handle(JSON.parse(m.data));
  ws.onclose = () => setTimeout(connect, 1000);
}

$("take").onclick = () => post("/api/capture");
$("snackbar").querySelector("button").onclick = () => { if (snackID) post("/api/snackbar/" + snackID); };
$("allow").onclick = () => post("/api/permissions/" + consentCode, { grants: [true, true] });
$("deny").onclick = () => post("/api/permissions/" + consentCode, { grants: [false, false] });
connect();
</script>
</body>
</html>
`
