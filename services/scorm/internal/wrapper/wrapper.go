// Package wrapper synthesizes the runtime bridge document: the host-served
// HTML page that embeds untrusted SCORM content in a sandboxed frame and
// exposes the emulated LMS API under the names content discovers it by.
package wrapper

import (
	"html/template"
	"io"
)

// Params parameterizes one bridge document.
type Params struct {
	ContentID   string
	ContentType string
	// Token is the learner's bearer credential, forwarded as a query
	// parameter because the frame cannot set request headers.
	Token string
	// ContentURL is the absolute or root-relative URL of the package
	// entry point.
	ContentURL string
	// RuntimeBase is the root-relative base of this session's runtime
	// endpoints, e.g. "/scorm/runtime/<session-id>".
	RuntimeBase string
}

// Render writes the bridge document for p.
func Render(w io.Writer, p Params) error {
	return tmpl.Execute(w, p)
}

// The API shim is installed under both the SCORM 1.2 global name (API) and
// the 2004 compatibility alias (API_1484_11) before the frame src is set:
// content auto-discovers its runtime object by walking parent frames for
// either name, and omitting one alias silently breaks content written to
// that spec version. Calls are relayed synchronously to the server-held
// session, matching the synchronous contract legacy content expects.
var tmpl = template.Must(template.New("bridge").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Content Player</title>
<style>html,body{margin:0;height:100%;overflow:hidden}iframe{border:0;width:100%;height:100%}</style>
</head>
<body>
<script>
(function () {
  "use strict";

  var base = {{.RuntimeBase}};
  var token = {{.Token}};

  function call(method, path, params) {
    var qs = "token=" + encodeURIComponent(token);
    for (var k in params) {
      qs += "&" + k + "=" + encodeURIComponent(params[k]);
    }
    var xhr = new XMLHttpRequest();
    try {
      if (method === "GET") {
        xhr.open("GET", base + path + "?" + qs, false);
        xhr.send(null);
      } else {
        xhr.open("POST", base + path + "?token=" + encodeURIComponent(token), false);
        xhr.setRequestHeader("Content-Type", "application/json");
        xhr.send(JSON.stringify(params || {}));
      }
      return JSON.parse(xhr.responseText);
    } catch (e) {
      // Transport trouble must never crash the content; report a
      // general exception through the normal error channel.
      return { result: "false", value: "", error_code: 101 };
    }
  }

  var lastError = 0;

  function remember(resp) {
    lastError = resp.error_code || 0;
    return resp;
  }

  var api = {
    LMSInitialize: function () {
      return remember(call("POST", "/initialize", {})).result;
    },
    LMSFinish: function () {
      return remember(call("POST", "/finish", {})).result;
    },
    LMSGetValue: function (element) {
      return remember(call("GET", "/value", { element: element })).value || "";
    },
    LMSSetValue: function (element, value) {
      return remember(call("POST", "/value", { element: element, value: String(value) })).result;
    },
    LMSCommit: function () {
      return remember(call("POST", "/commit", {})).result;
    },
    LMSGetLastError: function () {
      return String(lastError);
    },
    LMSGetErrorString: function (code) {
      return call("GET", "/error", { code: code }).error_string || "";
    },
    LMSGetDiagnostic: function (code) {
      return call("GET", "/error", { code: code }).diagnostic || "";
    }
  };

  // SCORM 2004 compatibility alias over the same session.
  var api2004 = {
    Initialize: api.LMSInitialize,
    Terminate: api.LMSFinish,
    GetValue: api.LMSGetValue,
    SetValue: api.LMSSetValue,
    Commit: api.LMSCommit,
    GetLastError: api.LMSGetLastError,
    GetErrorString: api.LMSGetErrorString,
    GetDiagnostic: api.LMSGetDiagnostic
  };

  window.API = api;
  window.API_1484_11 = api2004;

  // Host relay: progress samples arrive on the session websocket and are
  // forwarded to the host page; save/finish signals travel the other way.
  var ws;
  try {
    var scheme = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(scheme + location.host + base + "/events?token=" + encodeURIComponent(token));
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "SCORM_PROGRESS" && window.parent !== window) {
        window.parent.postMessage(msg, "*");
      }
    };
  } catch (e) {
    ws = null;
  }

  window.addEventListener("message", function (ev) {
    var msg = ev.data || {};
    if (msg.type !== "SCORM_SAVE" && msg.type !== "SCORM_FINISH") {
      return;
    }
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify({ type: msg.type }));
    } else if (msg.type === "SCORM_SAVE") {
      api.LMSCommit();
    } else {
      api.LMSFinish();
    }
  });

  // Install the frame only after the API globals exist.
  var frame = document.createElement("iframe");
  frame.setAttribute("sandbox", "allow-same-origin allow-scripts allow-forms allow-popups allow-modals");
  frame.setAttribute("title", "scorm-content");
  frame.src = {{.ContentURL}};
  document.body.appendChild(frame);
})();
</script>
</body>
</html>
`))
