package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sidlawliet/whiteroom-mentor/internal/app"
	"github.com/sidlawliet/whiteroom-mentor/internal/chat"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List the stored sessions of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// listing never calls the mentor, so no provider is built here
			p, _, closeFn, err := app.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ctl := chat.NewController(p, nil, chat.WithNamespace(cfg.Namespace))
			if err := ctl.Activate(cmd.Context(), userFlag); err != nil {
				return err
			}
			printSessions(ctl.Sessions())
			return nil
		},
	}
}

func printSessions(sessions []chat.Session) {
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDIFFICULTY\tLAST ACTIVE\tPREVIEW")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Difficulty, s.LastActive.Local().Format(time.DateTime), s.Preview)
	}
	_ = tw.Flush()
}
