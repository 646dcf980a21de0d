// Package main is the entry point for the turbomidi CLI
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"elektron/turbomidi-go/pkg/port"
	"elektron/turbomidi-go/pkg/turbomidi"
)

var (
	configFile string
	targetFlag string
	timeoutMs  int
	pushFlag   bool
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "turbomidi",
	Short: "Negotiate TurboMIDI line speeds between two peers",
	Long: `turbomidi runs one side of an Elektron TurboMIDI negotiation over
TCP, QUIC, or a real serial port.

Examples:
  turbomidi responder --config responder.toml
  turbomidi master --config master.toml --target 8x
  turbomidi master --config master.toml --target 4x --push`,
}

var masterCmd = &cobra.Command{
	Use:   "master",
	Short: "Run the negotiating side",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return err
		}

		target, err := turbomidi.ParseSpeed(targetFlag)
		if err != nil {
			return err
		}

		p, cleanup, err := openPort(cfg.Port)
		if err != nil {
			return err
		}
		defer cleanup()

		eng := turbomidi.NewMaster(p, turbomidi.DefaultConfig(), newLogger())
		if err := ApplySpeeds(eng, cfg.Speeds); err != nil {
			return err
		}

		if pushFlag {
			eng.Push(target)
			fmt.Printf("pushed %s (%d baud)\n", target, target.BaudRate())
		} else {
			if !eng.Negotiate(target, time.Duration(timeoutMs)*time.Millisecond) {
				return fmt.Errorf("negotiation for %s failed", target)
			}
			fmt.Printf("negotiated %s (%d baud)\n", target, target.BaudRate())
		}

		runLoop(eng)
		return nil
	},
}

var responderCmd = &cobra.Command{
	Use:   "responder",
	Short: "Run the answering side",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return err
		}

		p, cleanup, err := openPort(cfg.Port)
		if err != nil {
			return err
		}
		defer cleanup()

		eng := turbomidi.NewResponder(p, turbomidi.DefaultConfig(), newLogger())
		if err := ApplySpeeds(eng, cfg.Speeds); err != nil {
			return err
		}

		fmt.Println("responder ready")
		runLoop(eng)
		return nil
	},
}

var speedsCmd = &cobra.Command{
	Use:   "speeds",
	Short: "List the defined speed codes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, label := range turbomidi.SpeedLabels() {
			m, _ := turbomidi.ParseSpeed(label)
			fmt.Printf("%2d  %-6s %d baud\n", uint8(m), label, m.BaudRate())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "turbomidi.toml", "TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	masterCmd.Flags().StringVarP(&targetFlag, "target", "t", "2x", "target speed (label or code)")
	masterCmd.Flags().IntVar(&timeoutMs, "timeout", 30, "per-phase wait in milliseconds")
	masterCmd.Flags().BoolVar(&pushFlag, "push", false, "push the speed instead of negotiating")

	rootCmd.AddCommand(masterCmd)
	rootCmd.AddCommand(responderCmd)
	rootCmd.AddCommand(speedsCmd)
}

func newLogger() turbomidi.Logger {
	if verbose {
		return turbomidi.NewLogger(turbomidi.LevelDebug)
	}
	return turbomidi.NewLogger(turbomidi.LevelInfo)
}

// openPort builds the configured transport
func openPort(cfg PortConfig) (turbomidi.Port, func(), error) {
	switch cfg.Transport {
	case "tcp":
		p, err := port.NewTCPPort(port.TCPPortConfig{
			Address:  cfg.Address,
			IsServer: cfg.Listen,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	case "quic":
		p, err := port.NewQUICPort(port.QUICPortConfig{
			Address:  cfg.Address,
			IsServer: cfg.Listen,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	case "serial":
		p, err := port.NewSerialPort(port.SerialPortConfig{
			Device: cfg.Device,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// runLoop pumps the engine until interrupted
func runLoop(eng *turbomidi.Engine) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			fmt.Println("shutting down")
			return
		case <-ticker.C:
			eng.Pump()
		}
	}
}
