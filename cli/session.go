package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/pwrecorder/pwrecorder/config"
	"github.com/pwrecorder/pwrecorder/pkg/models"
	bridgeSvc "github.com/pwrecorder/pwrecorder/pkg/service/bridge"
	"github.com/pwrecorder/pwrecorder/pkg/service/locator"
	"github.com/pwrecorder/pwrecorder/utils"
	"github.com/pwrecorder/pwrecorder/utils/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	Register("session", Session)
}

const sessionHelp = `Commands:
  goto <url>           open a page
  pick                 click an element to get its locator
  highlight <locator>  outline what a locator matches
  line <source line>   highlight the locator used on a line of test code
  reset                open a fresh browser context on a blank page
  log                  show recent recorder messages
  quit                 close the browser and exit`

var sessionVerbs = []string{"goto", "pick", "highlight", "line", "reset", "log", "help", "quit", "exit"}

// closestVerb returns the verb within two edits of a mistyped one.
func closestVerb(verb string) string {
	best, bestDist := "", 3
	for _, v := range sessionVerbs {
		if d := levenshtein.ComputeDistance(verb, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

func Session(ctx context.Context, logger *zap.Logger, cfg *config.Config, serviceFactory ServiceFactory, cmdConfigurator CmdConfigurator) *cobra.Command {
	var cmd = &cobra.Command{
		Use:     "session",
		Short:   "drive one browser interactively: pick, highlight and preview locators",
		Example: `pwrecorder session --url https://example.com`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdConfigurator.ValidateFlags(ctx, cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := serviceFactory.GetService(ctx, cmd.Name())
			if err != nil {
				utils.LogError(logger, err, "failed to get service")
				return err
			}
			client, ok := svc.(bridgeSvc.Service)
			if !ok {
				err := errors.New("service doesn't satisfy bridge service interface")
				utils.LogError(logger, err, "failed to start the session")
				return err
			}
			defer func() {
				if err := client.Stop(); err != nil {
					utils.LogError(logger, err, "failed to stop the bridge")
				}
			}()
			return runSession(ctx, logger, client, cfg.URL, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	if err := cmdConfigurator.AddFlags(cmd, cfg); err != nil {
		utils.LogError(logger, err, "failed to add session flags")
		return nil
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

// runSession reads commands from in until quit, EOF or ctx ends. Command failures are printed
// and the loop goes on.
// lockedWriter serialises the REPL's output with the listener output written from the
// bridge's reader goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runSession(ctx context.Context, logger *zap.Logger, client bridgeSvc.Service, url string, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	previewer := locator.NewPreviewer(logger, client)
	previewer.SetURL(url)

	client.OnLocator(func(l string) {
		fmt.Fprintln(out, "picked: "+models.HighlightString(l))
	})
	client.OnError(func(msg string) {
		fmt.Fprintln(out, "error: "+models.HighlightFailingString(msg))
	})
	if err := client.StartSession(ctx, url); err != nil {
		return err
	}
	fmt.Fprintln(out, sessionHelp)

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
	}()

	for {
		var raw string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			raw = l
		}
		verb, arg, _ := strings.Cut(strings.TrimSpace(raw), " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch verb {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "goto":
			url = arg
			previewer.SetURL(url)
			err = client.StartSession(ctx, url)
		case "pick":
			err = client.BeginPick(ctx, url)
		case "highlight":
			err = client.StartPreview(ctx, url, arg)
		case "line":
			var sent string
			sent, err = previewer.Line(ctx, arg)
			if err == nil && sent != "" {
				fmt.Fprintln(out, "highlighting: "+models.HighlightString(sent))
			}
		case "reset":
			err = client.Reset(ctx)
		case "log":
			for _, entry := range log.Recent() {
				fmt.Fprintln(out, entry)
			}
		case "help":
			fmt.Fprintln(out, sessionHelp)
		default:
			if guess := closestVerb(verb); guess != "" {
				fmt.Fprintf(out, "unknown command %q, did you mean %q?\n", verb, guess)
				break
			}
			fmt.Fprintf(out, "unknown command %q, type help for the list\n", verb)
		}
		if err != nil {
			fmt.Fprintln(out, "error: "+models.HighlightFailingString(err.Error()))
		}
	}
}
