package inmemory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sharetube/roomtracks/internal/repository/connection"
	"github.com/sharetube/roomtracks/pkg/wsrouter"
)

const writeWait = 10 * time.Second

// Conn is a registered websocket connection. Writes are serialized.
type Conn struct {
	ID    string
	TabID string
	Role  string

	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *Conn) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.ws.WriteJSON(v)
}

func (c *Conn) ReadJSON(v any) error {
	return c.ws.ReadJSON(v)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

type contextKey struct {
	tabID string
	role  string
}

type repo struct {
	connList map[*websocket.Conn]*Conn
	byCtx    map[contextKey]map[string]*Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]*Conn),
		byCtx:    make(map[contextKey]map[string]*Conn),
		logger:   logger,
	}
}

func (r *repo) Add(ws *websocket.Conn, tabID, role string) (*Conn, error) {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "tab_id", tabID, "role", role)
	if _, ok := r.connList[ws]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return nil, connection.ErrAlreadyExists
	}

	conn := &Conn{
		ID:    uuid.NewString(),
		TabID: tabID,
		Role:  role,
		ws:    ws,
	}

	key := contextKey{tabID: tabID, role: role}
	if r.byCtx[key] == nil {
		r.byCtx[key] = make(map[string]*Conn)
	}
	r.byCtx[key][conn.ID] = conn
	r.connList[ws] = conn

	r.logger.Debug(funcName, "result", conn.ID)
	return conn, nil
}

// Remove closes conn and reports how many connections of the same tab and
// role are still registered.
func (r *repo) Remove(conn *Conn) (int, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", conn.ID)
	if _, ok := r.connList[conn.ws]; !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return 0, connection.ErrNotFound
	}
	conn.Close()

	key := contextKey{tabID: conn.TabID, role: conn.Role}
	delete(r.connList, conn.ws)
	delete(r.byCtx[key], conn.ID)
	remaining := len(r.byCtx[key])
	if remaining == 0 {
		delete(r.byCtx, key)
	}

	r.logger.Debug(funcName, "remaining", remaining)
	return remaining, nil
}

func (r *repo) GetConns(tabID, role string) ([]*Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byCtx[contextKey{tabID: tabID, role: role}]
	if len(conns) == 0 {
		return nil, connection.ErrNotFound
	}

	res := make([]*Conn, 0, len(conns))
	for _, conn := range conns {
		res = append(res, conn)
	}

	return res, nil
}

// Push writes a message to every connection of the tab with the given role.
// It fails with connection.ErrNotFound when nobody is listening.
func (r *repo) Push(ctx context.Context, tabID, role, messageType string, payload any) error {
	funcName := "connection.inmemory.Push"
	conns, err := r.GetConns(tabID, role)
	if err != nil {
		return err
	}

	msg, err := wsrouter.NewMessage(messageType, "", payload)
	if err != nil {
		return err
	}

	var errs []error
	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			r.logger.DebugContext(ctx, funcName, "conn_id", conn.ID, "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) == len(conns) {
		return errors.Join(errs...)
	}

	return nil
}
