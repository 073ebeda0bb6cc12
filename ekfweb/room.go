package ekfweb

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Room relays every message received from one client to all clients.
type Room struct {
	// forward is a channel that holds incoming messages
	// that should be forwarded to the other clients.
	forward chan []byte
	// join is a channel for clients wishing to join the room.
	join chan *client
	// leave is a channel for clients wishing to leave the room.
	leave chan *client
	// clients holds all current clients in this room.
	clients map[*client]bool
	// done is closed when Run returns.
	done chan struct{}

	log *zap.SugaredLogger
}

// NewRoom makes a new room that is ready to go.
func NewRoom(log *zap.SugaredLogger) *Room {
	return &Room{
		forward: make(chan []byte),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
		done:    make(chan struct{}),
		log:     log.Named("room"),
	}
}

// Run serves the room until ctx is cancelled.
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			for client := range r.clients {
				delete(r.clients, client)
				close(client.send)
			}
			r.log.Info("room closed")
			return
		case client := <-r.join:
			r.clients[client] = true
			r.log.Infow("client joined", "clients", len(r.clients))
		case client := <-r.leave:
			if r.clients[client] {
				delete(r.clients, client)
				close(client.send)
			}
			r.log.Infow("client left", "clients", len(r.clients))
		case msg := <-r.forward:
			for client := range r.clients {
				select {
				case client.send <- msg:
				default:
					r.log.Debug("client buffer full, message dropped")
				}
			}
		}
	}
}

const (
	socketBufferSize  = 1024
	messageBufferSize = 10
)

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

func (r *Room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Errorw("upgrade failed", "error", err)
		return
	}
	client := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
		room:   r,
	}
	select {
	case r.join <- client:
	case <-r.done:
		socket.Close()
		return
	}
	defer func() {
		select {
		case r.leave <- client:
		case <-r.done:
		}
	}()
	go client.write()
	client.read()
}

// client is a single websocket connection to the room.
type client struct {
	socket *websocket.Conn
	// send is a channel on which messages are sent.
	send chan []byte
	room *Room
}

func (c *client) read() {
	defer c.socket.Close()
	for {
		_, msg, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.room.forward <- msg:
		case <-c.room.done:
			return
		}
	}
}

func (c *client) write() {
	defer c.socket.Close()
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
