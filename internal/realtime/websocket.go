package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const readLimit = 4096

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and keeps the viewer registered until the
// client goes away. Inbound frames are read and discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	conn.SetReadLimit(readLimit)

	id := h.Register(conn)
	defer h.Unregister(id)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("viewer", id).Debug("Viewer read failed")
			}
			return
		}
	}
}
