package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chatsync/internal/config"
	"chatsync/internal/dispatch"
	"chatsync/internal/ledger"
	"chatsync/internal/ratelimit"
	"chatsync/internal/session"
	"chatsync/internal/tasks"
	"chatsync/internal/transport"
	"chatsync/internal/types"
)

func main() {
	cfg := config.Load()

	reader := bufio.NewScanner(os.Stdin)
	reader.Buffer(make([]byte, 64*1024), 64*1024)

	room := cfg.Room
	if room == "" {
		room = prompt(reader, "Enter room name: ")
	}
	username := cfg.Username
	if username == "" {
		username = prompt(reader, "Enter username: ")
	}
	if room == "" || username == "" {
		log.Fatal("[CLIENT] Room and username are required")
	}

	tokens, cleanup, err := openTokenStore(cfg)
	if err != nil {
		log.Fatalf("[CLIENT] Failed to open token store: %v", err)
	}
	defer cleanup()

	sess, err := session.Join(room, username, tokens)
	if err != nil {
		log.Fatalf("[CLIENT] Failed to join: %v", err)
	}

	d := dispatch.New(sess)
	go d.Run()

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_, err = transport.Dial(dialCtx, cfg.ServerURL, sess.Handshake(), d)
	cancel()
	if err != nil {
		log.Printf("[CLIENT] Could not connect: %v", err)
		d.Leave()
		os.Exit(1)
	}

	sweeper := tasks.NewTypingSweeper(d, cfg.TypingTTL)
	sweeper.Start()
	defer sweeper.Stop()

	go renderLoop(d, username)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	input := make(chan string)
	go func() {
		defer close(input)
		for reader.Scan() {
			input <- reader.Text()
		}
	}()

	// Keystroke-level debounce does not exist on a line-buffered terminal,
	// so the typing toggle fires per submitted line, gated by the limiter.
	typingGate := ratelimit.New(1, 2*time.Second)

	fmt.Printf("🚀 Joined %s as %s — /file <path> to attach, /read to mark read, /leave to quit\n", room, username)

	for {
		select {
		case <-stop:
			fmt.Println("\nShutdown signal received. Leaving room...")
			d.Leave()
			return

		case line, ok := <-input:
			if !ok {
				d.Leave()
				return
			}
			line = strings.TrimSpace(line)

			switch {
			case line == "":

			case line == "/leave":
				d.Leave()
				return

			case line == "/read":
				d.MarkRead()

			case strings.HasPrefix(line, "/file "):
				path := strings.TrimSpace(strings.TrimPrefix(line, "/file "))
				draft, err := draftFromFile(path)
				if err != nil {
					log.Printf("[CLIENT] Attachment failed: %v", err)
					continue
				}
				d.Send(draft)
				d.SetTyping(false)

			default:
				if typingGate.Allow() {
					d.SetTyping(true)
				}
				d.Send(ledger.Draft{Text: line})
				d.SetTyping(false)
			}
		}
	}
}

func prompt(reader *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !reader.Scan() {
		return ""
	}
	return strings.TrimSpace(reader.Text())
}

func openTokenStore(cfg *config.Config) (session.TokenStore, func(), error) {
	if cfg.TokenStore == "sqlite" {
		store, err := session.NewSQLiteTokenStore(filepath.Join(cfg.StateDir, "state.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	return session.NewFileTokenStore(cfg.StateDir), func() {}, nil
}

func draftFromFile(path string) (ledger.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ledger.Draft{}, err
	}

	name := filepath.Base(path)
	mediaType := mime.TypeByExtension(filepath.Ext(name))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	return ledger.Draft{
		MediaFile:     data,
		MediaFileName: name,
		MediaFileType: mediaType,
	}, nil
}

// renderLoop prints new messages, delivery ticks for own messages, typing
// and presence changes as the dispatcher state evolves.
func renderLoop(d *dispatch.Dispatcher, self string) {
	seen := 0
	ticks := make(map[string]types.MessageStatus)
	online := make(map[string]bool)
	lastTyping := ""

	for {
		select {
		case <-d.Done():
			return

		case n := <-d.Notices():
			fmt.Printf("⚠️  %s: %s\n", n.Kind, n.Detail)

		case <-d.Updates():
			snap := d.Snapshot()

			if len(snap.Messages) < seen {
				// History snapshot replaced the ledger.
				seen = 0
				ticks = make(map[string]types.MessageStatus)
			}

			for _, msg := range snap.Messages[seen:] {
				printMessage(msg, self)
				if msg.OriginFor(self) == types.OriginLocal {
					ticks[msg.ID] = msg.Status
				}
			}
			seen = len(snap.Messages)

			for _, msg := range snap.Messages {
				if msg.OriginFor(self) != types.OriginLocal {
					continue
				}
				prev, ok := ticks[msg.ID]
				if !ok {
					// The ack reassigned the id; re-register quietly.
					ticks[msg.ID] = msg.Status
					continue
				}
				if prev != msg.Status {
					ticks[msg.ID] = msg.Status
					fmt.Printf("%s your message is now %s\n", tickMark(msg.Status), msg.Status)
				}
			}

			for _, entry := range snap.Online {
				if entry.Username == self {
					continue
				}
				if prev, ok := online[entry.Username]; !ok || prev != entry.Online {
					online[entry.Username] = entry.Online
					state := "offline"
					if entry.Online {
						state = "online"
					}
					fmt.Printf("👤 %s is %s\n", entry.Username, state)
				}
			}

			if typingLine := typingBanner(snap.Typing, self); typingLine != lastTyping {
				lastTyping = typingLine
				if typingLine != "" {
					fmt.Println(typingLine)
				}
			}
		}
	}
}

func printMessage(msg types.Message, self string) {
	prefix := msg.Sender
	if msg.Sender == self {
		prefix = "you"
	}
	if msg.HasAttachment() {
		fmt.Printf("[%s] %s 📎 %s (%.2f KB)\n", prefix, msg.Text, msg.MediaFileName, float64(len(msg.MediaFile))/1024)
		return
	}
	fmt.Printf("[%s] %s\n", prefix, msg.Text)
}

func tickMark(status types.MessageStatus) string {
	switch status {
	case types.StatusReceived:
		return "✔✔"
	case types.StatusRead:
		return "✔✔ (read)"
	}
	return "✔"
}

func typingBanner(typists []string, self string) string {
	var others []string
	for _, t := range typists {
		if t != self {
			others = append(others, t)
		}
	}
	if len(others) == 0 {
		return ""
	}
	return "✏️  " + strings.Join(others, ", ") + " is typing..."
}
