// Package main is the entry point for the launchkeyctl CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/james-see/launchkeyctl/pkg/api"
	"github.com/james-see/launchkeyctl/pkg/clock"
	"github.com/james-see/launchkeyctl/pkg/config"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/port"
	"github.com/james-see/launchkeyctl/pkg/settings"
	"github.com/james-see/launchkeyctl/pkg/surface"
	"github.com/james-see/launchkeyctl/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath   string
	settingsPath string
	logLevel     string
	outputPort   string
	serverAddr   string
	dryRun       bool
	byteBase     string
	data2        int
	clockBPM     int
	clockFor     time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "launchkeyctl",
	Short: "Control the LEDs, modes and clock of a Launchkey controller",
	Long: `launchkeyctl drives a Novation Launchkey in DAW mode: it colors pads and
control buttons, switches pad modes, sends MIDI clock and monitors input.

Examples:
  launchkeyctl ports
  launchkeyctl sync --dry-run
  launchkeyctl send raw 90 24 7F
  launchkeyctl send msg PadMode --data2 2
  launchkeyctl clock --bpm 128 --for 30s
  launchkeyctl monitor
  launchkeyctl serve --addr :8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: withSurface(true, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		addr := cfg.Addr
		if serverAddr != "" {
			addr = serverAddr
		}
		fmt.Printf("Starting launchkeyctl API server on %s...\n", addr)
		fmt.Printf("Swagger docs available at http://localhost%s/swagger/index.html\n", addr)
		return api.StartServer(s, addr)
	}),
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch the interactive device monitor",
	RunE: withSurface(true, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		return tui.Run(s)
	}),
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		inputs, outputs, err := s.Ports()
		if err != nil {
			return err
		}
		sel := s.Selection()
		fmt.Println("Inputs:")
		for _, name := range inputs {
			fmt.Printf("  %s%s\n", name, marker(name, sel.Input, sel.DAWInput))
		}
		fmt.Println("Outputs:")
		for _, name := range outputs {
			fmt.Printf("  %s%s\n", name, marker(name, sel.Output))
		}
		return nil
	}),
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Enter DAW mode and push every LED color",
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		n, err := s.Connect(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Connected, %d messages sent\n", n)
		return nil
	}),
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Leave DAW mode",
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		_, err := s.Disconnect(cmd.Context())
		return err
	}),
}

var modeCmd = &cobra.Command{
	Use:   "mode <drum|session|custom>",
	Short: "Switch the pad mode",
	Args:  cobra.ExactArgs(1),
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		mode, ok := layout.ParseMode(cmd.Flags().Arg(0))
		if !ok {
			return fmt.Errorf("%w: %q", settings.ErrInvalidMode, cmd.Flags().Arg(0))
		}
		_, err := s.SetMode(cmd.Context(), mode)
		return err
	}),
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push every pad and control color to the device",
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		if dryRun {
			for _, m := range s.Plan() {
				fmt.Printf("%s  %s\n", m, message.Describe(m.Params))
			}
			return nil
		}
		n, err := s.Sync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d messages\n", n)
		return nil
	}),
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single message",
}

var sendRawCmd = &cobra.Command{
	Use:   "raw <status> <data1> <data2>",
	Short: "Send three bytes unmodified",
	Args:  cobra.ExactArgs(3),
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		m, _, err := s.SendRaw(cmd.Context(), cmd.Flags().Args(), message.ParseBase(byteBase))
		if err != nil {
			return err
		}
		fmt.Printf("Sent %s  %s\n", m, message.Describe(m.Params))
		return nil
	}),
}

var sendMsgCmd = &cobra.Command{
	Use:   "msg <name>",
	Short: "Send a predefined message by name",
	Args:  cobra.ExactArgs(1),
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		var override *uint8
		if cmd.Flags().Changed("data2") {
			if data2 < 0 || data2 > 127 {
				return fmt.Errorf("%w: %d", message.ErrInvalidByte, data2)
			}
			v := uint8(data2)
			override = &v
		}
		m, _, err := s.SendNamed(cmd.Context(), cmd.Flags().Arg(0), override)
		if err != nil {
			return err
		}
		fmt.Printf("Sent %s  %s\n", m, message.Describe(m.Params))
		return nil
	}),
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List predefined messages",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range message.Names() {
			m, _ := message.Lookup(name)
			fmt.Printf("%-22s %s\n", name, m)
		}
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Export or import LED settings",
}

var settingsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the settings document to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		data, err := s.Settings().Snapshot().MarshalJSON()
		if err != nil {
			return err
		}
		if cmd.Flags().NArg() == 0 {
			fmt.Println(string(data))
			return nil
		}
		return os.WriteFile(cmd.Flags().Arg(0), data, 0644)
	}),
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the settings document",
	Args:  cobra.ExactArgs(1),
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		data, err := os.ReadFile(cmd.Flags().Arg(0))
		if err != nil {
			return err
		}
		m, err := settings.ParseMap(data)
		if err != nil {
			return err
		}
		return s.Settings().ReplaceAll(m)
	}),
}

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Send MIDI clock until interrupted",
	RunE: withSurface(false, func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error {
		if err := s.StartClock(clockBPM); err != nil {
			return err
		}
		st := s.Clock().Status()
		fmt.Printf("Clock running at %d BPM (%.2fms per pulse), ctrl+c to stop\n", st.RunningBPM, st.IntervalMS)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if clockFor > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, clockFor)
			defer cancel()
		}
		<-ctx.Done()
		return s.StopClock()
	}),
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <user config dir>/launchkeyctl/config.json)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "LED settings file (default next to the config file)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputPort, "output", "o", "", "Output port name, overriding the saved selection")

	// serve command
	serveCmd.Flags().StringVarP(&serverAddr, "addr", "a", "", "Listen address (default from config)")

	// sync command
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the messages instead of sending them")

	// send commands
	sendRawCmd.Flags().StringVarP(&byteBase, "base", "b", "hex", "Byte base (hex or dec)")
	sendMsgCmd.Flags().IntVar(&data2, "data2", 0, "Replace the last data byte (0-127)")
	sendCmd.AddCommand(sendRawCmd)
	sendCmd.AddCommand(sendMsgCmd)

	// settings commands
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)

	// clock command
	clockCmd.Flags().IntVar(&clockBPM, "bpm", 0, fmt.Sprintf("Tempo %d-%d (default from config)", clock.MinBPM, clock.MaxBPM))
	clockCmd.Flags().DurationVar(&clockFor, "for", 0, "Stop after this long")

	// Add commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(clockCmd)
}

type surfaceFunc func(cmd *cobra.Command, s *surface.Surface, cfg *config.Config) error

// withSurface loads config and settings, opens MIDI access and builds the
// surface for fn. listen attaches the selected inputs.
func withSurface(listen bool, fn surfaceFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if outputPort != "" {
			cfg.Output = outputPort
		}

		path, err := resolveSettingsPath(cfg)
		if err != nil {
			return err
		}
		persister := settings.NewFilePersister(path)
		store := settings.NewStore(settings.Load(persister), persister)

		access := port.NewAccess(nil)
		defer func() {
			if err := access.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close MIDI driver")
			}
		}()

		s := surface.New(surface.Options{
			Ports:    access,
			Config:   cfg,
			Settings: store,
		})
		defer s.Close()
		if listen {
			s.Open()
		}
		return fn(cmd, s, cfg)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func resolveSettingsPath(cfg *config.Config) (string, error) {
	if settingsPath != "" {
		return settingsPath, nil
	}
	if configPath != "" {
		return filepath.Join(filepath.Dir(cfg.File()), "settings.json"), nil
	}
	return config.SettingsPath()
}

func marker(name string, selected ...string) string {
	for _, s := range selected {
		if s == name {
			return " *"
		}
	}
	return ""
}
