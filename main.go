package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hardwire/global"
	"hardwire/logger"
	"hardwire/middleware"
	"hardwire/service/chat"
	"hardwire/service/push"
	"hardwire/service/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	global.ConfigAll()
	cfg := global.Config

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Errorf("[Main] open store failed: %v", err)
		return
	}
	defer store.Close()

	// Presence mirror is optional; the relay routes from its own registry
	// either way.
	var mirror chat.PresenceMirror
	if cfg.RedisAddr != "" {
		p, perr := storage.NewPresence(storage.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.NodeId, cfg.PresenceTTL)
		if perr != nil {
			logger.Warnf("[Main] presence mirror disabled: %v", perr)
		} else {
			mirror = p
			defer p.Close()
		}
	}

	relay := chat.NewServer(store, mirror)
	pusher := push.NewSender(store, push.VapidKeys{
		PublicKey:  cfg.VapidPublicKey,
		PrivateKey: cfg.VapidPrivateKey,
		Email:      cfg.VapidEmail,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Cors())

	r.GET("/ws", relay.HandleWS)
	r.GET("/messages", relay.HandleMessages)
	r.GET("/status", relay.HandleStatus)
	r.GET("/presence", relay.HandlePresence)
	r.POST("/push", pusher.HandleSendPush)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		logger.Infof("[HTTP] node=%s listening on %s", cfg.NodeId, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[HTTP] server failed: %v", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	// Drop the sockets before the listener so clients reconnect and
	// re-auth elsewhere; the registry starts empty on restart by design
	// and any mirror entries self-expire via their TTL.
	logger.Infof("[Main] shutting down")
	relay.Registry().CloseAll()

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Errorf("[Main] shutdown failed: %v", err)
	}
}
