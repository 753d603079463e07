package handlers

import (
	"DriveSync/service/ws"
)

type PingHandler struct{}

func NewPingHandler() ws.Handler          { return &PingHandler{} }
func (h *PingHandler) Type() ws.FrameType { return ws.FramePing }

func (h *PingHandler) Handle(_ *ws.Context, f *ws.Frame, c *ws.Client) error {
	c.Enqueue(ws.BuildPong(f.Seq))
	return nil
}
