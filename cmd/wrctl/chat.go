package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sidlawliet/whiteroom-mentor/internal/app"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var difficulty string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive mentoring session",
		Long: "Opens a REPL. Commands: /new [difficulty], /sessions, /switch <id>, " +
			"/image <path> (attached to the next message), /quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := chat.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctl := a.NewController(nil)
			// starting on top of an unread registry would overwrite it
			if err := ctl.Activate(cmd.Context(), userFlag); err != nil {
				return err
			}
			if _, err := ctl.Start(cmd.Context(), d); err != nil {
				return err
			}
			return repl(cmd.Context(), ctl, os.Stdin)
		},
	}
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(chat.DifficultyStandard), "BEGINNER, STANDARD or WHITE_ROOM")
	return cmd
}

func repl(ctx context.Context, ctl *chat.Controller, r io.Reader) error {
	active, _ := ctl.Active()
	printHeader(ctl, active)
	printMessages(active.Messages)

	var image string
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cmd, arg, _ := strings.Cut(line, " ")
			arg = strings.TrimSpace(arg)
			switch cmd {
			case "/quit", "/exit":
				return nil
			case "/sessions":
				printSessions(ctl.Sessions())
			case "/new":
				d := chat.DifficultyStandard
				if arg != "" {
					parsed, err := chat.ParseDifficulty(arg)
					if err != nil {
						fmt.Println(err)
						continue
					}
					d = parsed
				}
				s, err := ctl.Start(ctx, d)
				if err != nil {
					return err
				}
				image = ""
				printHeader(ctl, s)
				printMessages(s.Messages)
			case "/switch":
				if err := ctl.SwitchTo(ctx, arg); err != nil {
					return err
				}
				s, ok := ctl.Active()
				if !ok {
					fmt.Println("no such session; use /new or /switch <id>")
					continue
				}
				image = ""
				printHeader(ctl, s)
				printMessages(s.Messages)
			case "/image":
				uri, err := readImage(arg)
				if err != nil {
					fmt.Println(err)
					continue
				}
				image = uri
				fmt.Println("[image attached to next message]")
			default:
				fmt.Printf("unknown command %s\n", cmd)
			}
			continue
		}

		s, ok := ctl.Active()
		if !ok {
			fmt.Println("no active session; use /new or /switch <id>")
			continue
		}
		turn, err := ctl.Send(ctx, s.ID, line, image)
		if err != nil {
			if errors.Is(err, chat.ErrSendInProgress) {
				fmt.Println("still waiting for the previous reply")
				continue
			}
			return err
		}
		image = ""

		if tag := ctl.Focus(); tag != "" {
			fmt.Printf("[FOCUS: %s]\n", tag)
		}
		fmt.Printf("mentor: %s\n\n", turn.Reply.Content)
		if !turn.Reply.HasAnimated {
			if err := ctl.CompleteReveal(ctx, s.ID, turn.Reply.ID); err != nil {
				return err
			}
		}
	}
}

func printHeader(ctl *chat.Controller, s chat.Session) {
	fmt.Printf("== session %s  [%s]  focus: %s ==\n", s.ID, s.Difficulty, ctl.Focus())
}

func printMessages(msgs []chat.Message) {
	for _, m := range msgs {
		who := "you"
		if m.Role == chat.RoleModel {
			who = "mentor"
		}
		if m.Image != "" {
			fmt.Printf("%s: [image]\n", who)
		}
		fmt.Printf("%s: %s\n\n", who, m.Content)
	}
}

// readImage loads path as a data URI, the form stored on messages.
func readImage(path string) (string, error) {
	if path == "" {
		return "", errors.New("usage: /image <path>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
