package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/gorilla/websocket"
)

var addr = flag.String("addr", "localhost:3001", "relay server address")

// participantID is filled in from the welcome frame.
var participantID string

// lastShareID remembers the live-location bubble so /stop can end it.
var lastShareID int64

func main() {
	flag.Parse()

	conn := connectWebSocket()
	defer conn.Close()

	// OS interrupt signals
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Start goroutine to listen for incoming events
	done := make(chan struct{})
	go readEvents(conn, done)

	fmt.Println("Type a message, or /share <lat> <lon>, /loc <lat> <lon>, /stop:")
	writeEvents(conn, interrupt, done)
}

func connectWebSocket() *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to relay server: %v", err)
	}
	log.Println("Connected to relay server.")
	return conn
}

func readEvents(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			log.Printf("Error reading event: %v", err)
			return
		}
		printEvent(event)
	}
}

func printEvent(event domain.Event) {
	switch event.Type {
	case domain.EventWelcome:
		var w struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Payload, &w); err == nil {
			participantID = w.ID
			fmt.Printf("\n* you are %s\n", participantID)
		}
	case domain.EventInitialUsers:
		var users map[string]domain.Participant
		if err := json.Unmarshal(event.Payload, &users); err == nil {
			fmt.Printf("\n* %d participant(s) online\n", len(users))
		}
	case domain.EventUserJoined:
		var p domain.Participant
		if err := json.Unmarshal(event.Payload, &p); err == nil {
			fmt.Printf("\n* %s joined\n", p.ID)
		}
	case domain.EventUserDisconnected:
		var id string
		if err := json.Unmarshal(event.Payload, &id); err == nil {
			fmt.Printf("\n* %s left\n", id)
		}
	case domain.EventNewChatMessage:
		var msg domain.ChatMessage
		if err := json.Unmarshal(event.Payload, &msg); err == nil {
			if msg.Type == domain.MessageTypeLocation {
				fmt.Printf("\n[%s] %s shares location (%v, %v)\n", msg.Time, msg.Sender, *msg.Latitude, *msg.Longitude)
			} else {
				fmt.Printf("\n[%s] %s: %s\n", msg.Time, msg.Sender, msg.Text)
			}
		}
	case domain.EventLocationUpdate:
		var p domain.Participant
		if err := json.Unmarshal(event.Payload, &p); err == nil && p.Latitude != nil {
			fmt.Printf("\n* %s is at (%v, %v)\n", p.ID, *p.Latitude, *p.Longitude)
		}
	case domain.EventLocationShareEnded:
		var stop domain.SharingStopped
		if err := json.Unmarshal(event.Payload, &stop); err == nil {
			fmt.Printf("\n* share %d ended\n", stop.MsgID)
		}
	}
}

func writeEvents(conn *websocket.Conn, interrupt chan os.Signal, done chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection...")
			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error during close: %v", err)
			}
			return
		default:
			if scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := handleLine(conn, line); err != nil {
					log.Printf("Error sending event: %v", err)
					return
				}
			}
		}
	}
}

func handleLine(conn *websocket.Conn, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/share":
		lat, lon, err := parseCoords(fields)
		if err != nil {
			fmt.Println(err)
			return nil
		}
		msg := domain.ChatMessage{
			ID:        time.Now().UnixMilli(),
			Type:      domain.MessageTypeLocation,
			Sender:    participantID,
			Latitude:  &lat,
			Longitude: &lon,
			Time:      time.Now().Format("15:04"),
		}
		lastShareID = msg.ID
		return sendEvent(conn, domain.EventChatMessage, msg)

	case "/loc":
		lat, lon, err := parseCoords(fields)
		if err != nil {
			fmt.Println(err)
			return nil
		}
		return sendEvent(conn, domain.EventLocationUpdate, domain.Coordinates{Latitude: lat, Longitude: lon})

	case "/stop":
		if lastShareID == 0 {
			fmt.Println("no active share")
			return nil
		}
		return sendEvent(conn, domain.EventSharingStopped, domain.SharingStopped{MsgID: lastShareID})

	default:
		msg := domain.ChatMessage{
			ID:     time.Now().UnixMilli(),
			Type:   domain.MessageTypeText,
			Sender: participantID,
			Text:   line,
			Time:   time.Now().Format("15:04"),
		}
		return sendEvent(conn, domain.EventChatMessage, msg)
	}
}

func parseCoords(fields []string) (float64, float64, error) {
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("usage: %s <lat> <lon>", fields[0])
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude: %v", err)
	}
	lon, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude: %v", err)
	}
	return lat, lon, nil
}

func sendEvent(conn *websocket.Conn, t domain.EventType, payload interface{}) error {
	event, err := domain.NewEvent(t, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(event)
}
