package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// ConnectionType groups WebSocket clients by purpose.
type ConnectionType string

const (
	// ConnectionDashboard receives patient queue updates.
	ConnectionDashboard ConnectionType = "dashboard"
	// ConnectionTriage is used by voice interview clients.
	ConnectionTriage ConnectionType = "triage"
	// ConnectionGeneral is the fallback for everything else.
	ConnectionGeneral ConnectionType = "general"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

type wsConnection struct {
	id       string
	connType ConnectionType
	conn     *websocket.Conn

	// writeMu serializes writes; gorilla connections allow one writer.
	writeMu sync.Mutex
}

func (c *wsConnection) sendJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// ConnectionManager tracks active WebSocket connections by type.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[ConnectionType]map[string]*wsConnection
}

// NewConnectionManager creates an empty connection manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: map[ConnectionType]map[string]*wsConnection{
			ConnectionDashboard: {},
			ConnectionTriage:    {},
			ConnectionGeneral:   {},
		},
	}
}

func (m *ConnectionManager) add(conn *wsConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.connType][conn.id] = conn
	slog.Info("websocket connected", "connection_id", conn.id, "connection_type", conn.connType)
}

func (m *ConnectionManager) remove(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for connType, conns := range m.connections {
		if _, ok := conns[connectionID]; ok {
			delete(conns, connectionID)
			slog.Info("websocket disconnected", "connection_id", connectionID, "connection_type", connType)
			return
		}
	}
}

// SendTo sends a message to one connection.
func (m *ConnectionManager) SendTo(connectionID string, message any) {
	m.mu.RLock()
	var target *wsConnection
	for _, conns := range m.connections {
		if conn, ok := conns[connectionID]; ok {
			target = conn
			break
		}
	}
	m.mu.RUnlock()

	if target == nil {
		return
	}
	if err := target.sendJSON(message); err != nil {
		slog.Error("websocket send failed", "connection_id", connectionID, "error", err)
		m.remove(connectionID)
	}
}

// BroadcastToType sends a message to every connection of the given type.
// Connections that fail to write are dropped.
func (m *ConnectionManager) BroadcastToType(connType ConnectionType, message any) {
	m.mu.RLock()
	targets := make([]*wsConnection, 0, len(m.connections[connType]))
	for _, conn := range m.connections[connType] {
		targets = append(targets, conn)
	}
	m.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.sendJSON(message); err != nil {
			slog.Error("websocket broadcast failed", "connection_id", conn.id, "error", err)
			m.remove(conn.id)
		}
	}
}

// BroadcastAll sends a message to every connection.
func (m *ConnectionManager) BroadcastAll(message any) {
	for _, connType := range []ConnectionType{ConnectionDashboard, ConnectionTriage, ConnectionGeneral} {
		m.BroadcastToType(connType, message)
	}
}

// Count returns the number of connections of the given type, or all
// connections when connType is empty.
func (m *ConnectionManager) Count(connType ConnectionType) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if connType != "" {
		return len(m.connections[connType])
	}
	total := 0
	for _, conns := range m.connections {
		total += len(conns)
	}
	return total
}

// HandleWebSocket upgrades the request and pumps messages until the client
// disconnects.
func (s *APIV1Service) HandleWebSocket(c echo.Context) error {
	connType := ConnectionType(c.Param("connectionType"))
	switch connType {
	case ConnectionDashboard, ConnectionTriage, ConnectionGeneral:
	default:
		connType = ConnectionGeneral
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	conn := &wsConnection{
		id:       uuid.NewString(),
		connType: connType,
		conn:     ws,
	}
	s.connManager.add(conn)
	defer func() {
		s.connManager.remove(conn.id)
		ws.Close()
	}()

	_ = conn.sendJSON(map[string]any{
		"type":            "connection_established",
		"connection_id":   conn.id,
		"connection_type": connType,
		"message":         "Connected as " + string(connType) + " client",
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "connection_id", conn.id, "error", err)
			}
			return nil
		}

		var message map[string]any
		if err := json.Unmarshal(data, &message); err != nil {
			_ = conn.sendJSON(map[string]any{
				"type":    "error",
				"message": "Invalid JSON format",
			})
			continue
		}

		s.handleWebSocketMessage(conn, message)
	}
}

func (s *APIV1Service) handleWebSocketMessage(conn *wsConnection, message map[string]any) {
	messageType, _ := message["type"].(string)

	switch messageType {
	case "ping":
		_ = conn.sendJSON(map[string]any{
			"type":      "pong",
			"timestamp": message["timestamp"],
		})
	case "broadcast_test":
		s.connManager.BroadcastToType(conn.connType, map[string]any{
			"type":    "broadcast_message",
			"from":    conn.id,
			"message": message["message"],
		})
	case "patient_update":
		s.connManager.BroadcastToType(ConnectionDashboard, map[string]any{
			"type":      "patient_update",
			"data":      message["data"],
			"timestamp": message["timestamp"],
		})
	case "voice_data":
		_ = conn.sendJSON(map[string]any{
			"type":    "voice_response",
			"message": "Voice data received",
			"data":    message["data"],
		})
	default:
		_ = conn.sendJSON(map[string]any{
			"type":             "echo",
			"original_message": message,
			"message":          "Received message type: " + messageType,
		})
	}
}

// WebSocketStats reports connection counts per type.
func (s *APIV1Service) WebSocketStats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"total_connections":     s.connManager.Count(""),
		"dashboard_connections": s.connManager.Count(ConnectionDashboard),
		"triage_connections":    s.connManager.Count(ConnectionTriage),
		"general_connections":   s.connManager.Count(ConnectionGeneral),
	})
}
