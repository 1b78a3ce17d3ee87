package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"hardwire/logger"
	"hardwire/service/storage"
	"hardwire/tools/ids"
	"hardwire/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MessageStore is what the relay needs from the durable store.
type MessageStore interface {
	InsertMessage(ctx context.Context, senderID, receiverID, text string) (*storage.Message, error)
	ListConversation(ctx context.Context, userID, otherUserID string) ([]storage.Message, error)
}

// PresenceMirror is the best-effort online mirror. *storage.Presence in
// production; fakes in tests. Errors from it are logged and dropped, never
// surfaced to the socket path.
type PresenceMirror interface {
	Online(ctx context.Context, userID, connID string) error
	Offline(ctx context.Context, userID, connID string) error
	Lookup(ctx context.Context, userID string) (node string, online bool, err error)
}

// Server owns the registry and fans persisted messages out to online
// receivers. One instance per process, wired in main.
type Server struct {
	reg      *Registry
	store    MessageStore
	presence PresenceMirror // nil when the mirror is disabled
}

func NewServer(store MessageStore, presence PresenceMirror) *Server {
	safe.MustNotNil(store, "store")
	return &Server{
		reg:      NewRegistry(),
		store:    store,
		presence: presence,
	}
}

func (s *Server) Registry() *Registry { return s.reg }

// HandleWS upgrades and runs the read loop for one connection. Every
// failure inside the loop degrades to an error frame on this socket; the
// connection itself stays up until the peer goes away.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade failed: %v", err)
		return
	}

	cl := &Client{
		ConnID: ids.GenerateString(),
		sock:   &wsSocket{conn: ws},
	}
	logger.Infof("[WS] connected connID=%s remote=%s", cl.ConnID, ws.RemoteAddr())

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed connID=%s err=%v", cl.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout connID=%s err=%v", cl.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err connID=%s err=%v", cl.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			logger.Infof("[WS] bad frame connID=%s err=%v len=%d", cl.ConnID, perr, len(data))
			_ = cl.Send(BuildError("malformed payload"))
			continue
		}

		switch frame.Type {
		case FrameAuth:
			s.handleAuth(cl, frame.Auth)
		case FrameMessage:
			s.handleMessage(cl, frame.Message)
		}
	}

	// exit: drop only our own registry entry, then mirror the offline
	if s.reg.RemoveClient(cl) && cl.UserID != "" {
		s.presenceOffline(cl.UserID, cl.ConnID)
	}
	_ = cl.sock.Close()
	logger.Infof("[WS] closed connID=%s user=%s", cl.ConnID, cl.UserID)
}

func (s *Server) handleAuth(cl *Client, f *AuthFrame) {
	if f.UserID == "" {
		_ = cl.Send(BuildError("auth requires userId"))
		return
	}

	// Last-write-wins: a second device simply takes over routing. The old
	// socket stays open but orphaned.
	s.reg.Bind(f.UserID, cl)
	logger.Infof("[WS] authenticated user=%s connID=%s", f.UserID, cl.ConnID)

	s.presenceOnline(f.UserID, cl.ConnID)
	_ = cl.Send(BuildAuthSuccess())
}

func (s *Server) handleMessage(cl *Client, f *MessageFrame) {
	// senderId is trusted from the payload: the relay runs behind the
	// authenticated edge gateway, which owns identity.
	if f.SenderID == "" || f.ReceiverID == "" || f.MessageText == "" {
		_ = cl.Send(BuildError("message requires senderId, receiverId and messageText"))
		return
	}

	// No relay-level timeout here; the pool's own deadlines apply. Once the
	// insert starts there is no cancelling it.
	msg, err := s.store.InsertMessage(context.Background(), f.SenderID, f.ReceiverID, f.MessageText)
	if err != nil {
		logger.Errorf("[WS] persist failed sender=%s receiver=%s err=%v", f.SenderID, f.ReceiverID, err)
		_ = cl.Send(BuildError("failed to store message"))
		return
	}

	// Push to the receiver if online. Fire-and-forget: a failed write just
	// means they reconcile via the pull path.
	if rc, ok := s.reg.Get(f.ReceiverID); ok {
		if werr := rc.Send(BuildNewMessage(msg)); werr != nil {
			logger.Infof("[WS] forward failed receiver=%s connID=%s err=%v", f.ReceiverID, rc.ConnID, werr)
		} else {
			logger.Infof("[WS] delivered id=%d receiver=%s", msg.ID, f.ReceiverID)
		}
	} else {
		logger.Infof("[WS] receiver offline id=%d receiver=%s", msg.ID, f.ReceiverID)
	}

	// Ack the sender regardless of receiver state.
	_ = cl.Send(BuildMessageSent(msg.ID))
}

// presence writes are best-effort and must never slow down the socket path
func (s *Server) presenceOnline(userID, connID string) {
	if s.presence == nil {
		return
	}
	safe.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.presence.Online(ctx, userID, connID); err != nil {
			logger.Warnf("[Presence] online failed user=%s err=%v", userID, err)
		}
	})
}

func (s *Server) presenceOffline(userID, connID string) {
	if s.presence == nil {
		return
	}
	safe.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.presence.Offline(ctx, userID, connID); err != nil {
			logger.Warnf("[Presence] offline failed user=%s err=%v", userID, err)
		}
	})
}
