package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/TheAdaptoid/Altron-Core/internal/agent"
	"github.com/TheAdaptoid/Altron-Core/internal/server"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Converse with a running agent server",
	Long:  `Sends a message over the websocket endpoint and streams the agent's response. Without a message argument it drops into an interactive prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		if host == "" {
			host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
		}
		threadID, _ := cmd.Flags().GetString("thread")
		showThinking, _ := cmd.Flags().GetBool("show-thinking")

		if threadID == "" {
			id, err := createRemoteThread(host)
			if err != nil {
				return err
			}
			threadID = id
			fmt.Fprintf(os.Stderr, "thread: %s\n", threadID)
		}

		if len(args) > 0 {
			return converseTurn(host, threadID, strings.Join(args, " "), showThinking)
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}
			if err := converseTurn(host, threadID, line, showThinking); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	},
}

func createRemoteThread(host string) (string, error) {
	resp, err := http.Post("http://"+host+"/thread", "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to create thread: http %d", resp.StatusCode)
	}

	var th thread.Thread
	if err := json.NewDecoder(resp.Body).Decode(&th); err != nil {
		return "", fmt.Errorf("failed to decode thread: %w", err)
	}
	return th.ID, nil
}

func converseTurn(host, threadID, message string, showThinking bool) error {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+host+"/ws", nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	packet := server.ConversePacket{
		ThreadID: threadID,
		Message:  thread.NewMessage(thread.RoleUser, message),
	}
	if err := conn.WriteJSON(packet); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	thinking := false
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("stream interrupted: %w", err)
		}

		var ev agent.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("malformed event: %w", err)
		}

		switch ev.State {
		case agent.StateThinking:
			if showThinking && ev.Token != nil {
				if !thinking {
					fmt.Fprint(os.Stderr, "[thinking] ")
					thinking = true
				}
				fmt.Fprint(os.Stderr, *ev.Token)
			}
		case agent.StateResponding:
			if thinking {
				fmt.Fprintln(os.Stderr)
				thinking = false
			}
			if ev.Token != nil {
				fmt.Print(*ev.Token)
			}
		case agent.StateFailed:
			if ev.Error != nil {
				return fmt.Errorf("agent failed: %s", *ev.Error)
			}
			return fmt.Errorf("agent failed")
		case agent.StateDone:
			fmt.Println()
			return nil
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("host", "", "server host:port (default localhost:<server.port>)")
	chatCmd.Flags().StringP("thread", "t", "", "thread id to continue (default: create a new thread)")
	chatCmd.Flags().Bool("show-thinking", false, "print reasoning tokens to stderr")
}
