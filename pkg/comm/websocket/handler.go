package websocket

import (
	"context"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/envdash/pkg/comm"
)

// Handler serves each websocket client as a Hub peer.
func Handler(ctx context.Context, hub *comm.Hub) websocket.Handler {
	return func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		name := "ws:" + conn.Request().RemoteAddr
		if err := hub.Serve(ctx, name, New(conn)); err != nil {
			glog.V(2).Infof("websocket: %s closed: %v", name, err)
		}
	}
}

// Dial connects to a station's websocket endpoint.
func Dial(url, origin string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return New(conn), nil
}
