package handlers

import (
	"context"
	"time"

	"DriveSync/service/ws"
	"DriveSync/tools/decode"
	"DriveSync/tools/errs"
)

const commandTimeout = 5 * time.Second

// requireUser enforces the top-of-command authentication gate shared by
// every conversation and exam command.
func requireUser(c *ws.Client, seq string) (string, bool) {
	if c.UserID == "" {
		c.Enqueue(ws.BuildErr(seq, errs.ErrNotAuthorized))
		return "", false
	}
	return c.UserID, true
}

func commandCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// ---- LIST_CONVS ----

type ListConversationsHandler struct{}

func NewListConversationsHandler() ws.Handler          { return &ListConversationsHandler{} }
func (h *ListConversationsHandler) Type() ws.FrameType { return ws.FrameListConvs }

func (h *ListConversationsHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	user, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	views, err := ctx.S.Messaging().ListConversationsFor(cctx, user)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, map[string]any{"conversations": views}))
	return nil
}

// ---- CREATE_CONV ----

type CreateConversationPayload struct {
	TargetUserID string `json:"target_user_id"`
}

type CreateConversationHandler struct{}

func NewCreateConversationHandler() ws.Handler          { return &CreateConversationHandler{} }
func (h *CreateConversationHandler) Type() ws.FrameType { return ws.FrameCreateConv }

func (h *CreateConversationHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	user, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[CreateConversationPayload](f.Payload)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrInvalidTargetUser.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	conv, err := ctx.S.Messaging().CreateConversationBetween(cctx, user, payload.TargetUserID)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	view, err := ctx.S.Messaging().BuildView(cctx, conv, user)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, view))
	return nil
}

// ---- SEND_MSG ----

type SendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Body           string `json:"body"`
}

type SendMessageHandler struct{}

func NewSendMessageHandler() ws.Handler          { return &SendMessageHandler{} }
func (h *SendMessageHandler) Type() ws.FrameType { return ws.FrameSendMsg }

func (h *SendMessageHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	user, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[SendMessagePayload](f.Payload)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrInvalidConversation.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	msg, err := ctx.S.Messaging().SendMessage(cctx, user, payload.ConversationID, payload.Body)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, map[string]any{
		"message_id":  msg.MessageID,
		"seq":         msg.Seq,
		"create_time": msg.CreateTime.UnixMilli(),
	}))
	return nil
}

// ---- GET_MSGS ----

type GetMessagesPayload struct {
	ConversationID string `json:"conversation_id"`
}

type GetMessagesHandler struct{}

func NewGetMessagesHandler() ws.Handler          { return &GetMessagesHandler{} }
func (h *GetMessagesHandler) Type() ws.FrameType { return ws.FrameGetMsgs }

func (h *GetMessagesHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	user, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[GetMessagesPayload](f.Payload)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrInvalidConversation.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	msgs, err := ctx.S.Messaging().GetMessages(cctx, user, payload.ConversationID)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, map[string]any{"messages": msgs}))
	return nil
}

// ---- READ_MSG ----

type ReadMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

type ReadMessageHandler struct{}

func NewReadMessageHandler() ws.Handler          { return &ReadMessageHandler{} }
func (h *ReadMessageHandler) Type() ws.FrameType { return ws.FrameReadMsg }

func (h *ReadMessageHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	user, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[ReadMessagePayload](f.Payload)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrMessageNotFound.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	if err := ctx.S.Messaging().ReadMessage(cctx, user, payload.ConversationID, payload.MessageID); err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, nil))
	return nil
}
