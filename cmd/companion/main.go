package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chadiek/cville-companion/internal/capture"
	"github.com/chadiek/cville-companion/internal/config"
	"github.com/chadiek/cville-companion/internal/gateway"
	"github.com/chadiek/cville-companion/internal/location"
	"github.com/chadiek/cville-companion/internal/logging"
	"github.com/chadiek/cville-companion/internal/playback"
	"github.com/chadiek/cville-companion/internal/session"
	"github.com/chadiek/cville-companion/internal/transcript"
)

const greeting = "Hey there! I'm Sam, your beer-savvy Charlottesville guide. Let's get started."

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFile)
	log := logger.WithField("session_id", uuid.NewString())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gw := gateway.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	locator := location.NewLocator(cfg.LocationURL, log)
	go locator.Watch(ctx, cfg.LocationRefresh)

	ctrl := session.NewController(
		gw,
		capture.NewRecorder(log),
		playback.NewPlayer(log),
		locator,
		log,
	)
	ctrl.Transcript().Append(transcript.NewTurn(transcript.RoleAssistant, greeting))

	log.WithField("backend", cfg.BackendURL).Info("companion started")
	if err := runREPL(ctx, ctrl, os.Stdin, os.Stdout, log); err != nil {
		log.WithField("error", err.Error()).Error("repl terminated")
		os.Exit(1)
	}
}

func runREPL(ctx context.Context, ctrl *session.Controller, in io.Reader, out io.Writer, log *logrus.Entry) error {
	fmt.Fprintf(out, "Sam: %s\n", greeting)
	fmt.Fprintln(out, "Commands: /voice, /location, /replay, /history, /exit. Anything else is sent as chat.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "[%s]> ", locationLabel(ctrl))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/exit", "/quit":
			return nil

		case "/location":
			if ctrl.ToggleLocationSource() {
				fmt.Fprintln(out, "location: Charlottesville (test)")
			} else {
				fmt.Fprintln(out, "location: current (best effort)")
			}

		case "/history":
			for _, t := range ctrl.Transcript().Snapshot() {
				fmt.Fprintf(out, "%s: %s\n", speakerLabel(t.Role), t.Content)
			}

		case "/replay":
			if last, ok := lastAssistantTurn(ctrl); ok {
				ctrl.PlayReply(ctx, last)
			} else {
				fmt.Fprintln(out, "nothing to replay yet")
			}

		case "/voice":
			runVoiceTurn(ctx, ctrl, scanner, out)

		default:
			ctrl.SendText(ctx, line)
			printLastReply(ctrl, out)
		}
	}
}

func runVoiceTurn(ctx context.Context, ctrl *session.Controller, scanner *bufio.Scanner, out io.Writer) {
	if err := ctrl.StartVoiceTurn(); err != nil {
		fmt.Fprintf(out, "microphone error: %v\n", err)
		return
	}
	fmt.Fprintln(out, "recording... press Enter to stop")
	if !scanner.Scan() {
		// Input closed mid-recording; still finalize the cycle.
		ctrl.StopVoiceTurn(ctx)
		return
	}
	fmt.Fprintln(out, "processing...")
	ctrl.StopVoiceTurn(ctx)
	if heard := ctrl.LastTranscript(); heard != "" {
		fmt.Fprintf(out, "you said: %s\n", heard)
	}
	printLastReply(ctrl, out)
}

func printLastReply(ctrl *session.Controller, out io.Writer) {
	if t, ok := ctrl.Transcript().Last(); ok && t.Role == transcript.RoleAssistant {
		fmt.Fprintf(out, "Sam: %s\n", t.Content)
	}
}

func lastAssistantTurn(ctrl *session.Controller) (string, bool) {
	turns := ctrl.Transcript().Snapshot()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == transcript.RoleAssistant {
			return turns[i].Content, true
		}
	}
	return "", false
}

func speakerLabel(r transcript.Role) string {
	if r == transcript.RoleUser {
		return "you"
	}
	return "Sam"
}

func locationLabel(ctrl *session.Controller) string {
	if ctrl.UsingFixedLocation() {
		return "cville"
	}
	return "here"
}
