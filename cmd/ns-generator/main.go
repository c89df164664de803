package main

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/engine/protocol"
	"CANSpectra/internal/generator"
	"CANSpectra/internal/probe"
	"CANSpectra/pkg/pcap"
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	// arguments
	argConfig string
	argCount  int
	argSeed   uint64
	argAddr   string
	argOut    string

	rootCmd = &cobra.Command{
		Use:   "ns-generator",
		Short: "Generate random frame traffic for ns-detector",
	}

	tcpCmd = &cobra.Command{
		Use:   "tcp",
		Short: "Connect to the detector and stream frames in real time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			addr := argAddr
			if addr == "" {
				addr = cfg.Detector.ListenAddr
			}
			return runTCP(cmd.Context(), addr)
		},
	}

	natsCmd = &cobra.Command{
		Use:   "nats",
		Short: "Publish frames to the configured NATS subject in real time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runNATS(cmd.Context(), cfg.Probe)
		},
	}

	pcapCmd = &cobra.Command{
		Use:   "pcap",
		Short: "Write frames with synthetic timestamps to a pcap file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if argCount <= 0 {
				return fmt.Errorf("--count must be positive for pcap output")
			}
			return runPcap(cmd.Context(), argOut)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&argConfig, "config", "c", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().IntVarP(&argCount, "count", "n", 0, "Number of frames to send (0 runs until interrupted)")
	rootCmd.PersistentFlags().Uint64VarP(&argSeed, "seed", "s", uint64(time.Now().UnixNano()), "Random seed")

	tcpCmd.Flags().StringVarP(&argAddr, "addr", "a", "", "<host>:<port> of the detector (defaults to detector.listen_addr)")
	pcapCmd.Flags().StringVarP(&argOut, "out", "o", "frames.pcap", "Output pcap file")

	rootCmd.AddCommand(tcpCmd, natsCmd, pcapCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(argConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newGenerator(realtime bool) *generator.Generator {
	g := generator.New(argSeed)
	g.Realtime = realtime
	return g
}

func runTCP(ctx context.Context, addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()
	log.Printf("Connected to detector at %s", addr)

	sent := 0
	err = newGenerator(true).Run(ctx, argCount, func(raw protocol.RawFrame, _ time.Time) error {
		if _, err := conn.Write(raw.Bytes()); err != nil {
			return fmt.Errorf("failed to send frame: %w", err)
		}
		sent++
		return nil
	})
	log.Printf("Sent %d frames.", sent)
	return err
}

func runNATS(ctx context.Context, cfg config.ProbeConfig) error {
	pub, err := probe.NewPublisher(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer pub.Close()

	sent := 0
	err = newGenerator(true).Run(ctx, argCount, func(raw protocol.RawFrame, _ time.Time) error {
		sent++
		return pub.Publish(raw)
	})
	log.Printf("Published %d frames to '%s'.", sent, cfg.Subject)
	return err
}

func runPcap(ctx context.Context, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	buf := bufio.NewWriter(f)

	w, err := pcap.NewWriter(buf)
	if err != nil {
		return err
	}
	written := 0
	err = newGenerator(false).Run(ctx, argCount, func(raw protocol.RawFrame, at time.Time) error {
		if err := w.WriteFrame(raw, at); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	log.Printf("Wrote %d frames to %s", written, path)
	return nil
}
