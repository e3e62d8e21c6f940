package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kovidgoyal/npspec"
)

const (
	writeWait  = 10 * time.Second
	queueDepth = 16
)

type job struct {
	req Request
	err error
}

// Hub serves the requests of one websocket connection. Requests are read
// in one goroutine and computed and answered in order in another, which is
// the only writer of the connection.
type Hub struct {
	srv    *Server
	conn   *websocket.Conn
	remote string
	log    logrus.FieldLogger
	jobs   chan job
}

func NewHub(srv *Server, conn *websocket.Conn, remote string) *Hub {
	return &Hub{
		srv:    srv,
		conn:   conn,
		remote: remote,
		log:    srv.log.WithField("remote", remote),
		jobs:   make(chan job, queueDepth),
	}
}

// Run serves the connection until the peer goes away or ctx is done. The
// connection is closed on return.
func (h *Hub) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.conn.SetReadLimit(h.srv.readLimit)
	h.log.Debug("client connected")
	go func() {
		<-ctx.Done()
		h.conn.Close()
	}()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		h.handleRequests(ctx)
	}()
	h.readRequests(ctx)
	close(h.jobs)
	<-done
	h.conn.Close()
	h.log.Debug("client disconnected")
}

func (h *Hub) readRequests(ctx context.Context) {
	for {
		_, data, err := h.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).Warn("read failed")
			}
			return
		}
		j := job{req: h.srv.NewRequest()}
		if err := json.Unmarshal(data, &j.req); err != nil {
			j.err = err
		}
		select {
		case h.jobs <- j:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleRequests(ctx context.Context) {
	for j := range h.jobs {
		if ctx.Err() != nil {
			continue
		}
		var resp Response
		if j.err != nil {
			resp = Response{ID: j.req.ID, Status: BadRequest, Error: j.err.Error()}
			h.log.WithError(j.err).Debug("malformed request")
		} else {
			resp = h.srv.Compute(j.req, h.remote)
		}
		h.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := h.conn.WriteMessage(websocket.TextMessage, h.encode(resp)); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				h.log.WithError(err).Warn("write failed")
			}
			h.conn.Close()
			return
		}
	}
}

// encode marshals resp. A response that cannot be represented in JSON,
// such as one holding NaN, is replaced by a SolverFailure for the same
// request so the connection stays usable.
func (h *Hub) encode(resp Response) []byte {
	data, err := json.Marshal(&resp)
	if err == nil {
		return data
	}
	h.log.WithError(err).WithField("id", resp.ID).Error("unencodable response")
	data, _ = json.Marshal(&Response{
		ID: resp.ID, Status: npspec.SolverFailure, Run: resp.Run,
		Error: fmt.Sprintf("%s: cannot encode the result: %s", npspec.SolverFailure, err),
	})
	return data
}
