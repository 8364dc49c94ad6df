package adapter

import "text/template"

// shimTemplate is the generated bridge shim. It installs a foreign-convention
// global (window.openai) whose methods speak the bridge wire protocol over
// postMessage, and keeps an install/uninstall pair under
// window.__widgetBridgeShim so an embedding can detach it cleanly.
var shimTemplate = template.Must(template.New("shim").Parse(`(function () {
  "use strict";

  if (window.__widgetBridgeShim) {
    return;
  }

  var config = {{.ConfigJSON}};

  var pending = Object.create(null);
  var counter = 0;
  var installed = false;
  var previousGlobal;
  var hadPreviousGlobal = false;

  function nextId() {
    counter += 1;
    return "shim-" + Date.now().toString(36) + "-" + counter;
  }

  function post(message) {
    window.parent.postMessage(message, config.hostOrigin || "*");
  }

  function request(type, payload) {
    return new Promise(function (resolve, reject) {
      var id = nextId();
      var timer = setTimeout(function () {
        delete pending[id];
        reject(new Error(type + " timed out after " + config.timeoutMs + "ms"));
      }, config.timeoutMs);
      pending[id] = { resolve: resolve, reject: reject, timer: timer };
      post({ type: type, id: id, payload: payload });
    });
  }

  function settle(msg) {
    var call = pending[msg.id];
    if (!call) {
      return;
    }
    delete pending[msg.id];
    clearTimeout(call.timer);
    var payload = msg.payload || {};
    if (payload.error) {
      call.reject(new Error(payload.error.message || "host error"));
    } else {
      call.resolve(payload.result);
    }
  }

  function applyStatePush(payload) {
    for (var key in payload) {
      api[key] = payload[key];
    }
    window.dispatchEvent(new CustomEvent("widgetbridge:set_globals", {
      detail: { globals: payload }
    }));
  }

  function handleIntent(payload) {
    var url = payload && payload.url;
    if (!url || config.intentHandling === "ignore") {
      return;
    }
    if (!window.confirm("Open " + url + "?")) {
      return;
    }
    request("tool-call", { toolName: "open-link", params: { url: url } })
      .catch(function () {});
  }

  function onMessage(event) {
    if (config.hostOrigin && event.origin !== config.hostOrigin) {
      return;
    }
    var msg = event.data;
    if (!msg || typeof msg.type !== "string") {
      return;
    }
    switch (msg.type) {
      case "response":
        settle(msg);
        break;
      case "state-push":
        applyStatePush(msg.payload || {});
        break;
      case "open-link":
        handleIntent(msg.payload);
        break;
      case "lifecycle":
        window.dispatchEvent(new CustomEvent("widgetbridge:lifecycle", {
          detail: msg.payload || {}
        }));
        break;
    }
  }

  var api = {
    toolInput: null,
    toolOutput: null,
    toolResponseMetadata: null,
    widgetState: null,

    callTool: function (name, args) {
      return request("tool-call", { toolName: name, params: args || {} });
    },

    sendFollowupTurn: function (opts) {
      var prompt = opts && typeof opts === "object" ? opts.prompt : opts;
      return request("follow-up-prompt", { prompt: String(prompt || "") });
    },

    openExternal: function (opts) {
      var url = opts && typeof opts === "object" ? opts.href : opts;
      post({ type: "open-link", payload: { url: String(url || "") } });
    },

    requestDisplayMode: function () {
      return Promise.reject(new Error("requestDisplayMode is not implemented by this host"));
    },

    setWidgetState: function (state) {
      api.widgetState = state;
      return Promise.resolve();
    }
  };

  function install() {
    if (installed) {
      return;
    }
    hadPreviousGlobal = "openai" in window;
    previousGlobal = window.openai;
    window.openai = api;
    window.addEventListener("message", onMessage);
    installed = true;
  }

  function uninstall() {
    if (!installed) {
      return;
    }
    window.removeEventListener("message", onMessage);
    for (var id in pending) {
      clearTimeout(pending[id].timer);
    }
    pending = Object.create(null);
    if (hadPreviousGlobal) {
      window.openai = previousGlobal;
    } else {
      delete window.openai;
    }
    installed = false;
  }

  window.__widgetBridgeShim = {
    config: config,
    install: install,
    uninstall: uninstall
  };

  install();
})();
`))
