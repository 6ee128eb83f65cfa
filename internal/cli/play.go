package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"quiz-master-client/internal/client"
	"quiz-master-client/internal/config"
	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/identity"
	"quiz-master-client/internal/transport/ws"

	"github.com/spf13/cobra"
)

// NewPlayCmd builds the terminal client subcommand.
func NewPlayCmd(configPath *string) *cobra.Command {
	var serverURL, name, avatar string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join a quiz game from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, serverURL, name, avatar)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "websocket server url (overrides config)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "🎮", "avatar emoji")
	return cmd
}

func runPlay(ctx context.Context, configPath, serverURL, name, avatar string) error {
	if serverURL == "" {
		if cfg, err := config.Load(configPath); err == nil {
			serverURL = cfg.Client.ServerURL
		}
	}
	if serverURL == "" {
		serverURL = "ws://localhost:8080/ws"
	}

	idPath, err := identity.DefaultPath()
	if err != nil {
		return err
	}
	playerID, err := identity.Load(idPath)
	if err != nil {
		return err
	}

	transport, err := ws.Dial(ctx, serverURL)
	if err != nil {
		return err
	}
	defer transport.Close()

	session := client.NewSession(transport, playerID)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.Run(runCtx)
	go renderNotices(session)

	fmt.Printf("connected to %s as %s\n", serverURL, playerID)
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "create":
			settings := domain.QuizSettings{Category: "primary", Subject: "mathematics", Difficulty: "medium", QuestionCount: 5}
			if len(fields) >= 4 {
				settings.Category, settings.Subject, settings.Difficulty = fields[1], fields[2], fields[3]
			}
			if len(fields) >= 5 {
				if n, err := strconv.Atoi(fields[4]); err == nil {
					settings.QuestionCount = n
				}
			}
			room, err := session.CreateRoom(ctx, name, avatar, settings)
			if err != nil {
				fmt.Printf("create failed: %v\n", err)
				continue
			}
			fmt.Printf("room created, share the code: %s\n", room.Code)
		case "join":
			if len(fields) < 2 {
				fmt.Println("usage: join CODE")
				continue
			}
			room, err := session.JoinRoom(ctx, fields[1], name, avatar)
			if err != nil {
				fmt.Printf("join failed: %v\n", err)
				continue
			}
			fmt.Printf("joined room %s\n", room.Code)
		case "ready":
			if err := session.SetReady(ctx, true); err != nil {
				fmt.Printf("ready failed: %v\n", err)
			}
		case "unready":
			if err := session.SetReady(ctx, false); err != nil {
				fmt.Printf("unready failed: %v\n", err)
			}
		case "start":
			if err := session.StartGame(ctx); err != nil {
				fmt.Printf("start failed: %v\n", err)
			}
		case "answer":
			if len(fields) < 2 {
				fmt.Println("usage: answer N")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 {
				fmt.Println("answer takes the option number, starting at 1")
				continue
			}
			correct, err := session.SelectAnswer(ctx, n-1)
			if err != nil {
				fmt.Printf("answer failed: %v\n", err)
				continue
			}
			if correct {
				fmt.Println("correct!")
			} else {
				fmt.Println("wrong answer")
			}
		case "chat":
			if err := session.SendChat(ctx, strings.TrimPrefix(line, "chat ")); err != nil {
				fmt.Printf("chat failed: %v\n", err)
			}
		case "board":
			for _, entry := range session.Scoreboard() {
				fmt.Printf("%d. %s %s — %d\n", entry.Rank, entry.Player.Avatar, entry.Player.Name, entry.Player.Score)
			}
		case "leave":
			session.LeaveRoom()
			fmt.Println("left the room")
		case "quit", "exit":
			session.LeaveRoom()
			return nil
		case "help":
			printHelp()
		default:
			fmt.Printf("unknown command %q, try help\n", fields[0])
		}
	}
	return scanner.Err()
}

func renderNotices(session *client.Session) {
	for notice := range session.Notices() {
		switch notice.Kind {
		case client.NoticeConnection:
			fmt.Printf("[conn] %s\n", notice.Text)
		case client.NoticePhase:
			fmt.Printf("[game] phase: %s\n", notice.Text)
		case client.NoticeRoster:
			fmt.Println("[room] players:")
			for _, entry := range notice.Standings {
				ready := " "
				if entry.Player.Ready {
					ready = "✓"
				}
				fmt.Printf("  [%s] %s %s\n", ready, entry.Player.Avatar, entry.Player.Name)
			}
		case client.NoticeCountdown:
			fmt.Printf("[game] starting in %d...\n", notice.Seconds)
		case client.NoticeQuestion:
			if notice.Question != nil {
				fmt.Printf("\nQ%d: %s\n", notice.QuestionIndex+1, notice.Question.Text)
				for i, option := range notice.Question.Options {
					fmt.Printf("  %d) %s\n", i+1, option)
				}
			}
		case client.NoticeTimer:
			switch notice.TimerState {
			case client.TimerDanger:
				fmt.Printf("[timer] %d!!\n", notice.Seconds)
			case client.TimerWarning:
				fmt.Printf("[timer] %d\n", notice.Seconds)
			}
		case client.NoticeScoreboard:
			for _, entry := range notice.Standings {
				fmt.Printf("  %d. %s — %d\n", entry.Rank, entry.Player.Name, entry.Player.Score)
			}
		case client.NoticeResults:
			if notice.Results != nil {
				fmt.Println("\n=== final results ===")
				for _, entry := range notice.Results.Entries {
					fmt.Printf("  %d. %s %s — %d\n", entry.Rank, entry.Player.Avatar, entry.Player.Name, entry.Player.Score)
				}
				if notice.Results.Winner != nil {
					fmt.Printf("winner: %s %s\n", notice.Results.Winner.Avatar, notice.Results.Winner.Name)
				}
			}
		case client.NoticeChat:
			if notice.Chat != nil {
				fmt.Printf("[chat] %s: %s\n", notice.Chat.PlayerName, notice.Chat.Message)
			}
		case client.NoticeError:
			fmt.Printf("[error] %s\n", notice.Text)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  create [category subject difficulty [count]]  open a new room
  join CODE                                     join a room by code
  ready | unready                               toggle readiness
  start                                         start the game (host only)
  answer N                                      answer the current question
  chat MESSAGE                                  send a chat line
  board                                         print the scoreboard
  leave                                         leave the room
  quit                                          exit`)
}
