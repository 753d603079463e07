package ws

import (
	"encoding/json"
	"testing"

	"DriveSync/tools/errs"

	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"SEND_MSG","seq":"7","payload":{"conversation_id":"c1","body":"hi"}}`))
	require.NoError(t, err)
	require.Equal(t, FrameSendMsg, f.Type)
	require.Equal(t, "7", f.Seq)
	require.Equal(t, "c1", f.Payload["conversation_id"])

	_, err = ParseFrame([]byte(`{"seq":"7"}`))
	require.Error(t, err)

	_, err = ParseFrame([]byte(`not json`))
	require.Error(t, err)
}

func TestBuildErrCarriesCodeAndReplyTo(t *testing.T) {
	raw := BuildErr("42", errs.ErrAccessDenied.WithDetail("not a member"))

	var frame struct {
		Type    FrameType `json:"type"`
		ReplyTo string    `json:"reply_to"`
		Payload struct {
			Code   int    `json:"code"`
			Msg    string `json:"msg"`
			Detail string `json:"detail"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	require.Equal(t, FrameErr, frame.Type)
	require.Equal(t, "42", frame.ReplyTo)
	require.Equal(t, errs.ErrAccessDenied.Code, frame.Payload.Code)
	require.Equal(t, "not a member", frame.Payload.Detail)
}

func TestBuildKicked(t *testing.T) {
	raw := BuildKicked("exam-1")

	var frame struct {
		Type    FrameType         `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	require.Equal(t, FrameKicked, frame.Type)
	require.Equal(t, "exam-1", frame.Payload["exam_id"])
}
