package ws

import (
	"context"
	"net"
	"net/http"
	"time"

	"DriveSync/logger"
	chatservice "DriveSync/module/chat/service"
	examservice "DriveSync/module/exam/service"
	userservice "DriveSync/module/user/service"
	"DriveSync/service/storage"
	"DriveSync/tools/errs"
	"DriveSync/tools/ids"
	"DriveSync/tools/safe"
	jwtlib "DriveSync/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const sendQueueSize = 256

// Server owns the connection lifecycle and routes frames to handlers.
// Everything it depends on is constructed and injected, so tests build a
// fresh instance per case.
type Server struct {
	reg       *Registry
	disp      *Dispatcher
	presence  *Presence
	messaging *chatservice.Messaging
	arbiter   *examservice.Arbiter
	evaluator *examservice.Evaluator
	users     userservice.Resolver
	lastSeen  *storage.LastSeenStore
	jwtOpts   jwtlib.Options
}

type ServerDeps struct {
	Registry  *Registry
	Presence  *Presence
	Messaging *chatservice.Messaging
	Users     userservice.Resolver
	LastSeen  *storage.LastSeenStore
	JWTOpts   jwtlib.Options
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		reg:       deps.Registry,
		disp:      NewDispatcher(),
		presence:  deps.Presence,
		messaging: deps.Messaging,
		users:     deps.Users,
		lastSeen:  deps.LastSeen,
		jwtOpts:   deps.JWTOpts,
	}
}

// AttachExam is called during wiring, after the arbiter has been built
// with the server as its kick notifier.
func (s *Server) AttachExam(a *examservice.Arbiter, ev *examservice.Evaluator) {
	s.arbiter = a
	s.evaluator = ev
}

func (s *Server) Disp() *Dispatcher                 { return s.disp }
func (s *Server) Registry() *Registry               { return s.reg }
func (s *Server) Presence() *Presence               { return s.presence }
func (s *Server) Messaging() *chatservice.Messaging { return s.messaging }
func (s *Server) Arbiter() *examservice.Arbiter     { return s.arbiter }
func (s *Server) Evaluator() *examservice.Evaluator { return s.evaluator }
func (s *Server) Users() userservice.Resolver       { return s.users }
func (s *Server) JWTOpts() jwtlib.Options           { return s.jwtOpts }

// Kick implements the arbiter's notifier: tell the displaced connection
// it lost the exam session. The handle may have raced a disconnect; a
// missing client is fine.
func (s *Server) Kick(connID, examID string) {
	c := s.reg.GetByConnID(connID)
	if c == nil {
		return
	}
	c.Enqueue(BuildKicked(examID))
}

// BindUser records the authenticated identity for the connection.
func (s *Server) BindUser(c *Client, userID string) {
	c.UserID = userID
	s.reg.Register(userID, c)
}

// HandleWS upgrades the request and serves the connection until it
// closes.
func (s *Server) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), conn, sendQueueSize)
	go client.writePump()
	client.Enqueue(BuildConnAck(client.ConnID))
	logger.Infof("[ws] connected conn=%s remote=%s", client.ConnID, conn.RemoteAddr())

	s.readLoop(client)
	s.cleanup(client)
}

func (s *Server) readLoop(client *Client) {
	conn := client.WS
	for {
		mt, data, rerr := conn.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", client.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] ParseFrame err conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			continue
		}

		if err := s.disp.Dispatch(&Context{S: s}, frame, client); err != nil {
			// handlers reply with typed ERR frames themselves; reaching
			// here means no handler was registered for the type
			logger.Infof("[ws] dispatch conn=%s type=%s err=%v", client.ConnID, frame.Type, err)
			client.Enqueue(BuildErr(frame.Seq, errs.ErrInternal.WithDetail("unknown frame type")))
		}
	}
}

// cleanup runs once the read loop exits: drop the handle from the
// registry, release any exam claim tied to it, stamp last-seen when this
// was the user's final connection. Best-effort by design; there is no
// caller to fail to.
func (s *Server) cleanup(client *Client) {
	client.Close()

	user := client.UserID
	if user != "" {
		s.reg.Unregister(user, client.ConnID)
		if !s.reg.IsOnline(user) {
			safe.Go(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := s.lastSeen.Stamp(ctx, user, time.Now()); err != nil {
					logger.Warnf("[ws] last-seen stamp user=%s err=%v", user, err)
				}
			})
		}
	}
	if s.arbiter != nil {
		s.arbiter.ReleaseAll(client.ConnID)
	}
	logger.Infof("[ws] disconnected conn=%s user=%s", client.ConnID, user)
}
