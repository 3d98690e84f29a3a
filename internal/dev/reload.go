package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// ReloadPath is the WebSocket endpoint browsers connect to.
	ReloadPath = "/_inactive/reload"

	// ReloadScriptPath serves DevClientScript.
	ReloadScriptPath = "/_inactive/reload.js"

	// ReloadScriptTag is injected into index.html by dev builds.
	ReloadScriptTag = `<script src="` + ReloadScriptPath + `"></script>`
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeCSS   ReloadMessageType = "css"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

// ReloadServer manages WebSocket connections for live reload.
type ReloadServer struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// OnClientsChanged is called with the client count after each connect
	// and disconnect.
	OnClientsChanged func(n int)

	// lastError is replayed to clients that connect while a build is broken.
	lastError string
}

// NewReloadServer creates a new reload server.
func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default().With("component", "reload")
	}
	return &ReloadServer{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection.
func (r *ReloadServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("upgrade failed", "error", err)
		return
	}

	r.mu.Lock()
	wmu := &sync.Mutex{}
	r.clients[conn] = wmu
	n := len(r.clients)
	lastError := r.lastError
	r.mu.Unlock()
	r.clientsChanged(n)

	if lastError != "" {
		r.send(conn, wmu, ReloadMessage{Type: ReloadTypeError, Error: lastError})
	}

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.drop(conn)
}

// NotifyReload sends a full page reload message to all clients.
func (r *ReloadServer) NotifyReload() {
	r.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyCSS asks clients to refetch the stylesheet at the given URL path.
func (r *ReloadServer) NotifyCSS(file string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeCSS, File: file})
}

// NotifyError shows a build error overlay on all clients.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.mu.Lock()
	r.lastError = errMsg
	r.mu.Unlock()
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (r *ReloadServer) ClearError() {
	r.mu.Lock()
	r.lastError = ""
	r.mu.Unlock()
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

// broadcast sends a message to all connected clients.
func (r *ReloadServer) broadcast(msg ReloadMessage) {
	r.mu.RLock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(r.clients))
	for conn, wmu := range r.clients {
		clients[conn] = wmu
	}
	r.mu.RUnlock()

	for conn, wmu := range clients {
		r.send(conn, wmu, msg)
	}
}

func (r *ReloadServer) send(conn *websocket.Conn, wmu *sync.Mutex, msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	wmu.Lock()
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err = conn.WriteMessage(websocket.TextMessage, data)
	wmu.Unlock()

	if err != nil {
		r.logger.Debug("dropping reload client", "error", err)
		r.drop(conn)
	}
}

func (r *ReloadServer) drop(conn *websocket.Conn) {
	r.mu.Lock()
	_, ok := r.clients[conn]
	delete(r.clients, conn)
	n := len(r.clients)
	r.mu.Unlock()

	conn.Close()
	if ok {
		r.clientsChanged(n)
	}
}

func (r *ReloadServer) clientsChanged(n int) {
	if r.OnClientsChanged != nil {
		r.OnClientsChanged(n)
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[*websocket.Conn]*sync.Mutex)
	r.mu.Unlock()

	for conn := range clients {
		conn.Close()
	}
	r.clientsChanged(0)
}

// ServeScript serves DevClientScript.
func (r *ReloadServer) ServeScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(DevClientScript))
}

// DevClientScript is the browser side of live reload.
const DevClientScript = `(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.host + '` + ReloadPath + `');

        ws.onopen = function() {
            console.log('[inactive] live reload connected');
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    location.reload();
                    break;
                case 'css':
                    reloadCSS(msg.file);
                    break;
                case 'error':
                    console.error('[inactive] build error:', msg.error);
                    showErrorOverlay(msg.error);
                    break;
                case 'clear':
                    clearErrorOverlay();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function reloadCSS(file) {
        var links = document.querySelectorAll('link[rel="stylesheet"]');
        links.forEach(function(link) {
            var url = new URL(link.href);
            if (file && url.pathname !== file) {
                return;
            }
            url.searchParams.set('_reload', Date.now());
            link.href = url.toString();
        });
    }

    function showErrorOverlay(error) {
        clearErrorOverlay();

        var overlay = document.createElement('div');
        overlay.id = 'inactive-error-overlay';
        overlay.style.cssText = 'position:fixed;inset:0;background:rgba(0,0,0,0.9);color:#fff;font-family:monospace;font-size:14px;padding:20px;overflow:auto;z-index:999999;';

        var title = document.createElement('h2');
        title.style.cssText = 'color:#ff5555;margin:0 0 20px;';
        title.textContent = 'Build Error';

        var pre = document.createElement('pre');
        pre.style.cssText = 'white-space:pre-wrap;background:#1a1a1a;padding:20px;border-radius:8px;';
        pre.textContent = error;

        overlay.appendChild(title);
        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearErrorOverlay() {
        var overlay = document.getElementById('inactive-error-overlay');
        if (overlay) {
            overlay.remove();
        }
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
`
