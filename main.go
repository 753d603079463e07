package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"DriveSync/global"
	chatservice "DriveSync/module/chat/service"
	chatstore "DriveSync/module/chat/store"
	examservice "DriveSync/module/exam/service"
	examstore "DriveSync/module/exam/store"
	userservice "DriveSync/module/user/service"
	mgoSrv "DriveSync/service/mgo"
	"DriveSync/service/storage"
	redisSrv "DriveSync/service/storage/redis"
	"DriveSync/service/ws"
	"DriveSync/service/ws/handlers"

	"github.com/gin-gonic/gin"
)

func main() {
	global.ConfigAll()

	waitCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := mgoSrv.WaitReady(waitCtx, mgoSrv.GlobalManager()); err != nil {
		log.Fatalf("mongo not ready: %v", err)
	}
	db := mgoSrv.GetDB()

	chatStore := chatstore.NewMongoStore(db)
	examStore := examstore.NewMongoStore(db)
	users := userservice.NewMongoResolver(db)
	lastSeen := storage.NewLastSeenStore(redisSrv.GetRedis(), 0)

	reg := ws.NewRegistry()
	fanout := ws.NewFanout(8, 1024)
	presence := ws.NewPresence(reg, lastSeen)

	messaging := chatservice.NewMessaging(chatStore, users, presence)
	messaging.AttachBroadcaster(ws.NewBroadcaster(reg, fanout, messaging))

	jwtOpts := global.JWTOptions()
	server := ws.NewServer(ws.ServerDeps{
		Registry:  reg,
		Presence:  presence,
		Messaging: messaging,
		Users:     users,
		LastSeen:  lastSeen,
		JWTOpts:   jwtOpts,
	})

	arbiter := examservice.NewArbiter(examStore, server)
	evaluator := examservice.NewEvaluator(examStore, arbiter)
	server.AttachExam(arbiter, evaluator)

	disp := server.Disp()
	disp.Register(handlers.NewAuthHandler())
	disp.Register(handlers.NewPingHandler())
	disp.Register(handlers.NewListConversationsHandler())
	disp.Register(handlers.NewCreateConversationHandler())
	disp.Register(handlers.NewSendMessageHandler())
	disp.Register(handlers.NewGetMessagesHandler())
	disp.Register(handlers.NewReadMessageHandler())
	disp.Register(handlers.NewClaimExamHandler())
	disp.Register(handlers.NewChangeCriteriumHandler())
	disp.Register(handlers.NewEndExamHandler())

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", server.HandleWS)
	r.POST("/login", func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
			return
		}
		res, err := userservice.Login(c.Request.Context(), jwtOpts, users, req.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("[HTTP] Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
