package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterStatic wires a tiny inline HTML page at GET "/".
func RegisterStatic(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
	})
}

const indexPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width,initial-scale=1"/>
<title>Mini URL Shortener</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,sans-serif;margin:0;padding:2rem;background:#f6f7f9;color:#1d1f23}
main{max-width:640px;margin:0 auto}
form{display:flex;gap:.5rem}
input{flex:1;padding:.7rem;border:1px solid #c9ccd1;border-radius:6px;font-size:1rem}
button{padding:.7rem 1.1rem;border:0;border-radius:6px;background:#2f6fed;color:#fff;font-size:1rem;cursor:pointer}
#out{margin-top:1rem}
.err{color:#b42318}
code{background:#eceef1;padding:.1rem .3rem;border-radius:4px}
</style>
</head>
<body>
<main>
  <h1>Shorten a link</h1>
  <form id="f">
    <input id="url" name="url" type="url" required placeholder="https://example.com/a/very/long/link"/>
    <button type="submit">Shorten</button>
  </form>
  <div id="out"></div>
  <p><small>Links stay active for 15 days. API: <code>POST /shorten</code>, <code>GET /:code</code>, <code>GET /stats/:code</code></small></p>
</main>
<script>
const out = document.getElementById('out');
document.getElementById('f').addEventListener('submit', async (e) => {
  e.preventDefault();
  out.textContent = '';
  const res = await fetch('/shorten', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({url: document.getElementById('url').value.trim()})
  });
  const text = await res.text();
  let data = {};
  try { data = JSON.parse(text); } catch (_) { data = {message: text}; }
  if (!res.ok) {
    out.innerHTML = '<p class="err"></p>';
    out.firstChild.textContent = data.message || res.statusText;
    return;
  }
  const a = document.createElement('a');
  a.href = data.shortUrl;
  a.textContent = data.shortUrl;
  a.target = '_blank';
  a.rel = 'noopener';
  out.appendChild(a);
});
</script>
</body>
</html>`
