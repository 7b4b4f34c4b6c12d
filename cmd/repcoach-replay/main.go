package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/repcoach/internal/landmark"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/speech"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	recordingPath := flag.String("recording", "", "path to JSON landmark recording (array of frames)")
	activity := flag.String("activity", "generic", "activity name for the session")
	realtime := flag.Bool("realtime", false, "pace frames by their recorded timestamps instead of replaying as fast as possible")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcoach-replay", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *recordingPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repcoach-replay -recording <frames.json> [-activity NAME] [-realtime]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	frames, err := loadRecording(*recordingPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(*activity, session.Options{
		Speaker: speech.NewLocal(log),
		Log:     log,
	})

	events, cancelSub := sess.Subscribe(256)
	defer cancelSub()
	done := make(chan struct{})
	go func() {
		defer close(done)
		enc := json.NewEncoder(os.Stdout)
		for ev := range events {
			if err := enc.Encode(ev); err != nil {
				fmt.Fprintf(os.Stderr, "Error: encoding event: %v\n", err)
				return
			}
		}
	}()

	ctx := context.Background()
	var prev int64
	for i, f := range frames {
		if *realtime && i > 0 && f.Timestamp > prev {
			time.Sleep(time.Duration(f.Timestamp-prev) * time.Millisecond)
		}
		prev = f.Timestamp
		if _, err := sess.Submit(ctx, f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: frame %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	summary := sess.Finalize()
	cancelSub()
	<-done

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "=== Replay Summary ===")
	fmt.Fprintf(os.Stderr, "  Activity:      %s\n", summary.Activity)
	fmt.Fprintf(os.Stderr, "  Frames:        %d\n", len(frames))
	fmt.Fprintf(os.Stderr, "  Reps:          %d\n", summary.TotalReps)
	fmt.Fprintf(os.Stderr, "  Avg score:     %.1f\n", summary.AverageFormScore)
	fmt.Fprintf(os.Stderr, "  Cues accepted: %d\n", len(summary.Cues))
}

// loadRecording reads a JSON array of landmark frames. Frames are replayed
// in file order; timestamps are trusted as recorded.
func loadRecording(path string) ([]landmark.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	var frames []landmark.Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parsing recording: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("recording %s contains no frames", path)
	}
	return frames, nil
}
