package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/pkg/alert"
	"nova-drive-be/pkg/events"
	pktNats "nova-drive-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var setFlags struct {
	activity    string
	hands       string
	health      string
	distraction string
	fatigue     bool
	sleep       bool
}

// setCmd writes a snapshot built from flags; unset flags keep their safe value.
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Write a snapshot built from flags",
	Example: `  alertctl set --fatigue
  alertctl set --activity "texting" --distraction on
  alertctl set --sleep --nats nats://localhost:4222`,
	RunE: runSet,
}

var safeCmd = &cobra.Command{
	Use:   "safe",
	Short: "Write the all-safe snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd.Context(), alert.SafeSnapshot())
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the snapshot currently in the alert file",
	RunE:  runShow,
}

func init() {
	f := setCmd.Flags()
	f.StringVar(&setFlags.activity, "activity", alert.ActivitySafe, "Driver activity")
	f.StringVar(&setFlags.hands, "hands", alert.HandsOn, "Hands on wheel (on_wheel/off_wheel)")
	f.StringVar(&setFlags.health, "health", alert.Off, "Health alert (on/off)")
	f.StringVar(&setFlags.distraction, "distraction", alert.Off, "Distraction alert (on/off)")
	f.BoolVar(&setFlags.fatigue, "fatigue", false, "Raise the fatigue alert")
	f.BoolVar(&setFlags.sleep, "sleep", false, "Raise the sleep alert")
}

func runSet(cmd *cobra.Command, args []string) error {
	snap := alert.FromMap(map[string]interface{}{
		alert.KeyActivity:    setFlags.activity,
		alert.KeyHands:       setFlags.hands,
		alert.KeyHealth:      setFlags.health,
		alert.KeyDistraction: setFlags.distraction,
		alert.KeyFatigue:     setFlags.fatigue,
		alert.KeySleep:       setFlags.sleep,
	})
	return emit(cmd.Context(), snap)
}

func emit(ctx context.Context, snap alert.Snapshot) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if natsURL != "" {
		if err := publishSnapshot(ctx, natsURL, snap); err != nil {
			return err
		}
		color.Green("Published %s to %s", pktNats.Subject(events.TypeAlertSnapshot), natsURL)
	} else {
		if err := writeSnapshot(feedFile, snap); err != nil {
			return err
		}
		color.Green("Wrote %s", feedFile)
	}
	printSnapshot(snap)
	return nil
}

// writeSnapshot replaces path atomically so the file watcher never reads a
// partial document.
func writeSnapshot(path string, snap alert.Snapshot) error {
	data, err := json.MarshalIndent(snap.Map(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".alert-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func publishSnapshot(ctx context.Context, url string, snap alert.Snapshot) error {
	pub, err := pktNats.NewPublisher(url, logger.NewNop())
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pub.Publish(ctx, events.New(events.TypeAlertSnapshot, snap.Map()))
}

func runShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(feedFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", feedFile, err)
	}
	snap, err := alert.Parse(data)
	if err != nil {
		return err
	}
	printSnapshot(snap)
	return nil
}

func printSnapshot(snap alert.Snapshot) {
	field := func(name, value string, safe bool) {
		c := color.New(color.FgGreen)
		if !safe {
			c = color.New(color.FgRed, color.Bold)
		}
		fmt.Printf("  %-20s ", name)
		c.Println(value)
	}
	field(alert.KeyActivity, snap.Activity, snap.Activity == alert.ActivitySafe)
	field(alert.KeyHands, snap.Hands, snap.Hands == alert.HandsOn)
	field(alert.KeyHealth, snap.Health, snap.Health == alert.Off)
	field(alert.KeyDistraction, snap.Distraction, snap.Distraction == alert.Off)
	field(alert.KeyFatigue, fmt.Sprint(snap.Fatigue), !snap.Fatigue)
	field(alert.KeySleep, fmt.Sprint(snap.Sleep), !snap.Sleep)

	switch {
	case snap.Drowsy():
		color.Yellow("Assistant will run a drowsiness check-up")
	case !snap.Safe():
		color.Yellow("Assistant will give a safety advisory")
	default:
		color.Cyan("Driver state is safe")
	}
}
