package handlers

import (
	exammodel "DriveSync/module/exam/model"
	"DriveSync/service/ws"
	"DriveSync/tools/decode"
	"DriveSync/tools/errs"
)

// ---- CLAIM_EXAM ----

type ClaimExamPayload struct {
	ExamID string `json:"exam_id"`
}

type ClaimExamHandler struct{}

func NewClaimExamHandler() ws.Handler          { return &ClaimExamHandler{} }
func (h *ClaimExamHandler) Type() ws.FrameType { return ws.FrameClaimExam }

func (h *ClaimExamHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	user, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[ClaimExamPayload](f.Payload)
	if err != nil || payload.ExamID == "" {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNoEntity.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	exam, err := ctx.S.Arbiter().Claim(cctx, payload.ExamID, c.ConnID, user)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, map[string]any{"exam": exam}))
	return nil
}

// ---- CHANGE_CRIT ----

type ChangeCriteriumPayload struct {
	ExamID string `json:"exam_id"`
	Scope  string `json:"scope"`
	Name   string `json:"name"`
	State  string `json:"state"`
}

type ChangeCriteriumHandler struct{}

func NewChangeCriteriumHandler() ws.Handler          { return &ChangeCriteriumHandler{} }
func (h *ChangeCriteriumHandler) Type() ws.FrameType { return ws.FrameChangeCrit }

func (h *ChangeCriteriumHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	_, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[ChangeCriteriumPayload](f.Payload)
	if err != nil || payload.ExamID == "" {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNoEntity.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	err = ctx.S.Evaluator().ChangeCriteriumState(cctx,
		payload.ExamID, payload.Scope, payload.Name,
		exammodel.CriteriumState(payload.State), c.ConnID)
	if err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, nil))
	return nil
}

// ---- END_EXAM ----

type EndExamPayload struct {
	ExamID string `json:"exam_id"`
}

type EndExamHandler struct{}

func NewEndExamHandler() ws.Handler          { return &EndExamHandler{} }
func (h *EndExamHandler) Type() ws.FrameType { return ws.FrameEndExam }

func (h *EndExamHandler) Handle(ctx *ws.Context, f *ws.Frame, c *ws.Client) error {
	_, ok := requireUser(c, f.Seq)
	if !ok {
		return nil
	}
	payload, err := decode.DecodeMap[EndExamPayload](f.Payload)
	if err != nil || payload.ExamID == "" {
		c.Enqueue(ws.BuildErr(f.Seq, errs.ErrNoEntity.WithDetail("bad payload")))
		return nil
	}
	cctx, cancel := commandCtx()
	defer cancel()

	if err := ctx.S.Evaluator().EndExam(cctx, payload.ExamID, c.ConnID); err != nil {
		c.Enqueue(ws.BuildErr(f.Seq, errs.CodeOf(err)))
		return nil
	}
	c.Enqueue(ws.BuildAck(f.Seq, nil))
	return nil
}
