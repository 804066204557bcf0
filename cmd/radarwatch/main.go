// radarwatch receives detection frames and logs every detection.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	gonet "github.com/skyguard/radarsim/internal/net"
	"github.com/skyguard/radarsim/internal/net/packet"
)

func main() {
	listen := flag.String("listen", "0.0.0.0:12346", "address to receive detection frames on")
	control := flag.String("control", "", "simulator control address; when set, subscribe to it (e.g. 127.0.0.1:12347)")
	verbose := flag.Bool("v", false, "log every detection, not only frame summaries")
	flag.Parse()

	if err := run(*listen, *control, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(listen, control string, verbose bool) error {
	log, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	srv, err := gonet.NewDatagramServer(listen, 256, log)
	if err != nil {
		return err
	}
	defer srv.Shutdown()
	go srv.ReadLoop()
	log.Info("listening for detection frames", zap.Stringer("addr", srv.Addr()))

	if control != "" {
		if err := subscribe(srv, control); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		log.Info("subscription sent", zap.String("control", control))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var frames, bad int
	for {
		select {
		case d := <-srv.Incoming():
			if isControlReply(d.Data) {
				log.Info("control reply", zap.ByteString("body", d.Data))
				continue
			}
			f, err := packet.DecodeFrame(d.Data)
			if err != nil {
				bad++
				log.Warn("bad frame", zap.Stringer("from", d.From), zap.Int("bytes", len(d.Data)), zap.Error(err))
				continue
			}
			frames++
			logFrame(log, f)
		case sig := <-sigCh:
			log.Info("stopping",
				zap.String("signal", sig.String()),
				zap.Int("frames", frames),
				zap.Int("bad", bad),
				zap.Uint64("dropped", srv.Dropped()),
			)
			return nil
		}
	}
}

// subscribe asks the simulator to send frames to our listening port. The
// request leaves from the same socket so replies land here too.
func subscribe(srv *gonet.DatagramServer, control string) error {
	addr, err := net.ResolveUDPAddr("udp", control)
	if err != nil {
		return err
	}
	body, err := json.Marshal(map[string]any{"type": "subscribe", "port": srv.Addr().Port})
	if err != nil {
		return err
	}
	return srv.SendTo(addr, body)
}

func isControlReply(data []byte) bool {
	return len(data) > 0 && data[0] == '{'
}

func logFrame(log *zap.Logger, f packet.Frame) {
	log.Info("frame",
		zap.Time("at", f.Timestamp),
		zap.Int("detections", len(f.Detections)),
	)
	for _, d := range f.Detections {
		log.Debug("detection",
			zap.Int32("id", d.ID),
			zap.Float64("x", d.Position.X),
			zap.Float64("y", d.Position.Y),
			zap.Float64("distance", d.Distance),
			zap.Float64("azimuth_deg", d.Azimuth*180/math.Pi),
			zap.Float64("speed", d.Speed),
			zap.Stringer("shape", d.Shape),
			zap.Stringer("profile", d.Profile),
			zap.Bool("parametric", d.Parametric),
		)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	zapCfg.EncoderConfig.ConsoleSeparator = "  "
	zapCfg.DisableCaller = true
	zapCfg.DisableStacktrace = true
	if !verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return zapCfg.Build()
}
