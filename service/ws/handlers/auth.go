package handlers

import (
	"context"
	"time"

	"DriveSync/logger"
	"DriveSync/service/ws"
	"DriveSync/tools/decode"
	"DriveSync/tools/errs"
	jwtlib "DriveSync/tools/security"
)

const resolveTimeout = 3 * time.Second

// AuthPayload is the first frame a client sends after CONN_ACK.
type AuthPayload struct {
	Token string `json:"token"`
}

type AuthHandler struct{}

func NewAuthHandler() ws.Handler          { return &AuthHandler{} }
func (h *AuthHandler) Type() ws.FrameType { return ws.FrameAuth }

// Handle verifies the token, resolves the identity and binds it to the
// connection. Failure replies with a typed ERR frame; the transport
// stays open so the client may retry.
func (h *AuthHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	payload, err := decode.DecodeMap[AuthPayload](f.Payload)
	if err != nil || payload.Token == "" {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNotAuthorized.WithDetail("missing token")))
		return nil
	}

	claims, err := jwtlib.Verify(ctx.S.JWTOpts(), payload.Token)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNotAuthorized.WithDetail("token rejected")))
		return nil
	}
	sub := claims.Subject()
	if sub == "" {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNotAuthorized.WithDetail("token has no subject")))
		return nil
	}

	rctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	u, err := ctx.S.Users().ResolveUser(rctx, sub)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	if u == nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNotAuthorized.WithDetail("unknown subject")))
		return nil
	}

	ctx.S.BindUser(c, u.UserID)
	logger.Infof("[auth] conn=%s bound user=%s", c.ConnID, u.UserID)
	c.Enqueue(ws.BuildAck(f.Seq, map[string]any{
		"user_id":      u.UserID,
		"display_name": u.DisplayName,
		"role":         u.Role,
	}))
	return nil
}
