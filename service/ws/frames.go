package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"DriveSync/tools/errs"
)

// FrameType tags every frame on the wire.
type FrameType string

const (
	// client -> server
	FrameAuth       FrameType = "AUTH"
	FramePing       FrameType = "PING"
	FrameListConvs  FrameType = "LIST_CONVS"
	FrameCreateConv FrameType = "CREATE_CONV"
	FrameSendMsg    FrameType = "SEND_MSG"
	FrameGetMsgs    FrameType = "GET_MSGS"
	FrameReadMsg    FrameType = "READ_MSG"
	FrameClaimExam  FrameType = "CLAIM_EXAM"
	FrameChangeCrit FrameType = "CHANGE_CRIT"
	FrameEndExam    FrameType = "END_EXAM"

	// server -> client
	FrameConnAck  FrameType = "CONN_ACK"
	FramePong     FrameType = "PONG"
	FrameAck      FrameType = "ACK"
	FrameErr      FrameType = "ERR"
	FrameSyncConv FrameType = "SYNC_CONV"
	FrameKicked   FrameType = "KICKED"
)

// Frame is an inbound command. Seq is a client-chosen correlation id
// echoed back on the reply.
type Frame struct {
	Type    FrameType      `json:"type"`
	TS      int64          `json:"ts,omitempty"`
	Seq     string         `json:"seq,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// OutFrame is anything the server pushes.
type OutFrame struct {
	Type    FrameType `json:"type"`
	TS      int64     `json:"ts"`
	ReplyTo string    `json:"reply_to,omitempty"` // echoes the request seq
	Payload any       `json:"payload,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("frame has no type")
	}
	return &f, nil
}

func marshal(f *OutFrame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		// out frames are built from plain structs; this cannot happen
		return []byte(`{"type":"ERR"}`)
	}
	return b
}

func BuildConnAck(connID string) []byte {
	return marshal(&OutFrame{
		Type: FrameConnAck, TS: time.Now().UnixMilli(),
		Payload: map[string]any{"conn_id": connID},
	})
}

func BuildPong(replyTo string) []byte {
	return marshal(&OutFrame{Type: FramePong, TS: time.Now().UnixMilli(), ReplyTo: replyTo})
}

func BuildAck(replyTo string, payload any) []byte {
	return marshal(&OutFrame{
		Type: FrameAck, TS: time.Now().UnixMilli(),
		ReplyTo: replyTo, Payload: payload,
	})
}

func BuildErr(replyTo string, ce *errs.CodeError) []byte {
	return marshal(&OutFrame{
		Type: FrameErr, TS: time.Now().UnixMilli(),
		ReplyTo: replyTo, Payload: ce,
	})
}

func BuildSyncConv(view any) []byte {
	return marshal(&OutFrame{
		Type: FrameSyncConv, TS: time.Now().UnixMilli(), Payload: view,
	})
}

func BuildKicked(examID string) []byte {
	return marshal(&OutFrame{
		Type: FrameKicked, TS: time.Now().UnixMilli(),
		Payload: map[string]any{"exam_id": examID},
	})
}
