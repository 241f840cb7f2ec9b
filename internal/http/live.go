package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"people-search/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type liveFrame struct {
	Type  string `json:"type"`
	Query string `json:"q,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type liveResultFrame struct {
	Type     string               `json:"type"`
	State    string               `json:"state"`
	Query    string               `json:"query"`
	Items    []SearchUserResponse `json:"items"`
	Count    int                  `json:"count"`
	HasMore  bool                 `json:"has_more"`
	Appended bool                 `json:"appended"`
	Error    string               `json:"error,omitempty"`
}

// liveSearch hosts the debounced search lifecycle over a websocket: the
// client streams keystrokes, the server debounces, cancels superseded
// queries, and pushes result frames. One session per connection.
func (h *Handler) liveSearch(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	limit := intQuery(c, "limit")

	sess := session.New(h.search, session.Config{
		ViewerID: viewerID(c),
		Limit:    limit,
		Logger:   h.logger,
		OnUpdate: func(u session.Update) {
			frame := liveResultFrame{
				Type:     "results",
				State:    string(u.State),
				Query:    u.Query,
				Items:    usersToResponse(u.Items),
				Count:    len(u.Items),
				HasMore:  u.HasMore,
				Appended: u.Appended,
			}
			if u.Err != nil {
				frame.Error = "search failed"
			}
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debugf("live search write: %v", err)
			}
		},
	})
	defer sess.Close()

	for {
		var frame liveFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugf("live search read: %v", err)
			}
			return
		}

		switch frame.Type {
		case "input":
			sess.SetInput(frame.Query)
		case "more":
			sess.LoadMore()
		default:
			// ignore unknown frame types for forward compatibility
		}
	}
}
