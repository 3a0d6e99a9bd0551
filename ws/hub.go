package ws

// Hub menyimpan koneksi client dan mem-broadcast event laporan
// (mis. match-set baru diunggah) ke semua client yang terhubung.

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrHubFull dikembalikan Publish bila antrean broadcast penuh.
var ErrHubFull = errors.New("antrean broadcast penuh")

// Client mewakili koneksi WebSocket
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Event adalah pesan yang dikirim ke client.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub mengelola semua koneksi client
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	Log        *zap.Logger

	// done ditutup saat Run selesai
	done chan struct{}
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Log:        log,
		done:       make(chan struct{}),
	}
}

// Publish mengirim event ke antrean broadcast tanpa memblokir pemanggil.
func (h *Hub) Publish(eventType string, data interface{}) error {
	b, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return err
	}
	select {
	case h.Broadcast <- b:
		return nil
	default:
		return ErrHubFull
	}
}

// register mendaftarkan client; false bila hub sudah berhenti.
func (h *Hub) register(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// Run memproses register, unregister, dan broadcast sampai ctx selesai.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.Clients {
				close(client.Send)
				delete(h.Clients, client)
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			h.Log.Debug("client websocket terdaftar", zap.Int("clients", len(h.Clients)))
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				h.Log.Debug("client websocket keluar", zap.Int("clients", len(h.Clients)))
			}
		case message := <-h.Broadcast:
			h.Log.Debug("broadcast event", zap.ByteString("message", message))
			for client := range h.Clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.Clients, client)
				}
			}
		}
	}
}
