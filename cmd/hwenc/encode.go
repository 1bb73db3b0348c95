package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/thesyncim/hwenc/internal/ffi"
	"github.com/thesyncim/hwenc/pkg/codec"
	"github.com/thesyncim/hwenc/pkg/config"
	"github.com/thesyncim/hwenc/pkg/encoder"
	"github.com/thesyncim/hwenc/pkg/frame"
	"github.com/thesyncim/hwenc/pkg/metrics"
)

var encodeFlags struct {
	input       string
	output      string
	width       int
	height      int
	fps         string
	format      string
	codec       string
	colorspace  string
	colorRange  string
	bitrate     int
	rateControl string
	frames      int
	logLevel    string
	metricsAddr string
}

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a raw video file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEncode(cmd)
	},
}

func init() {
	f := encodeCmd.Flags()
	f.StringVarP(&encodeFlags.input, "input", "i", "", "raw input file, - for stdin")
	f.StringVarP(&encodeFlags.output, "output", "o", "", "elementary stream output file")
	f.IntVar(&encodeFlags.width, "width", 1920, "frame width")
	f.IntVar(&encodeFlags.height, "height", 1080, "frame height")
	f.StringVar(&encodeFlags.fps, "fps", "30/1", "frame rate as num/den or an integer")
	f.StringVar(&encodeFlags.format, "format", "nv12", "input pixel format (nv12, i420)")
	f.StringVar(&encodeFlags.codec, "codec", "", "codec (h264, hevc), overrides the config file")
	f.StringVar(&encodeFlags.colorspace, "colorspace", "709", "input colorspace (601, 709, srgb)")
	f.StringVar(&encodeFlags.colorRange, "range", "partial", "input range (partial, full)")
	f.IntVar(&encodeFlags.bitrate, "bitrate", 0, "bitrate in kbps, overrides the config file")
	f.StringVar(&encodeFlags.rateControl, "rate-control", "", "rate control (CBR, VBR, CQP, lossless), overrides the config file")
	f.IntVar(&encodeFlags.frames, "frames", 0, "stop after this many frames (0 = whole input)")
	f.StringVar(&encodeFlags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	f.StringVar(&encodeFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	_ = encodeCmd.MarkFlagRequired("input")
	_ = encodeCmd.MarkFlagRequired("output")
}

func runEncode(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if encodeFlags.codec != "" {
		cfg.Codec = encodeFlags.codec
	}
	if encodeFlags.bitrate > 0 {
		cfg.Bitrate = encodeFlags.bitrate
	}
	if encodeFlags.rateControl != "" {
		cfg.RateControl = encodeFlags.rateControl
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	typ, _ := cfg.Type()

	info, err := videoInfoFromFlags()
	if err != nil {
		return err
	}

	stats := metrics.New(prometheus.Labels{"codec": typ.Codec()})
	if encodeFlags.metricsAddr != "" {
		go func() {
			if err := stats.StartServer(encodeFlags.metricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	stream := encoder.NewStaticStream(typ.ID(), info)
	stream.Preferred = info.Format

	if err := ffi.LoadLibrary(); err == nil {
		ffi.SetLogLevel(avLogLevel(encodeFlags.logLevel))
	}

	sess, err := encoder.Create(cfg.Settings, stream, typ,
		encoder.WithLoggerFactory(loggerFactory(encodeFlags.logLevel)),
		encoder.WithStats(stats))
	if err != nil {
		if msg := stream.LastError(); msg != "" {
			fmt.Fprintln(os.Stderr, strings.ReplaceAll(msg, "\r\n", "\n"))
		}
		return err
	}
	defer sess.Destroy()

	in, closeIn, err := openInput(encodeFlags.input)
	if err != nil {
		return err
	}
	defer closeIn()

	out, err := os.Create(encodeFlags.output)
	if err != nil {
		return err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	n, err := encodeAll(sess, in, w, info)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	snap := stats.Snapshot()
	cmd.Printf("encoded %d frames: %d packets, %d bytes, %d keyframes\n",
		n, snap.PacketsProduced, snap.BytesProduced, snap.Keyframes)
	return nil
}

// encodeAll reads frames until EOF and writes the header followed by every
// packet produced. It returns the number of frames read.
func encodeAll(sess *encoder.Session, in io.Reader, w io.Writer, info codec.VideoInfo) (int, error) {
	pool := frame.NewVideoFramePool(info.Width, info.Height, info.Format, 1)
	headerWritten := false

	n := 0
	for encodeFlags.frames == 0 || n < encodeFlags.frames {
		src := pool.Get()
		if err := readFrame(in, src); err != nil {
			src.Release()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return n, err
		}
		src.PTS = int64(n)
		n++

		pkt, ok, err := sess.Encode(src)
		src.Release()
		if err != nil {
			return n, err
		}
		if !ok {
			continue
		}

		if !headerWritten {
			if h, ok := sess.HeaderBytes(); ok {
				if _, err := w.Write(h); err != nil {
					return n, err
				}
			}
			headerWritten = true
		}
		if _, err := w.Write(pkt.Data); err != nil {
			return n, err
		}
	}
	return n, nil
}

// readFrame fills every plane of f from a tightly packed stream.
func readFrame(r io.Reader, f *frame.VideoFrame) error {
	for p := range f.Data {
		if _, err := io.ReadFull(r, f.Data[p]); err != nil {
			return err
		}
	}
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return bufio.NewReader(os.Stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return bufio.NewReader(f), func() { _ = f.Close() }, nil
}

func videoInfoFromFlags() (codec.VideoInfo, error) {
	fps, err := parseRational(encodeFlags.fps)
	if err != nil {
		return codec.VideoInfo{}, err
	}

	var format frame.PixelFormat
	switch strings.ToLower(encodeFlags.format) {
	case "nv12":
		format = frame.PixelFormatNV12
	case "i420", "yuv420p":
		format = frame.PixelFormatI420
	default:
		return codec.VideoInfo{}, fmt.Errorf("unsupported input format %q", encodeFlags.format)
	}

	cs, ok := codec.ParseColorSpace(strings.ToLower(encodeFlags.colorspace))
	if !ok {
		return codec.VideoInfo{}, fmt.Errorf("unknown colorspace %q", encodeFlags.colorspace)
	}

	var vr codec.VideoRange
	switch strings.ToLower(encodeFlags.colorRange) {
	case "", "default":
		vr = codec.VideoRangeDefault
	case "partial", "limited", "tv":
		vr = codec.VideoRangePartial
	case "full", "pc":
		vr = codec.VideoRangeFull
	default:
		return codec.VideoInfo{}, fmt.Errorf("unknown range %q", encodeFlags.colorRange)
	}

	if encodeFlags.width <= 0 || encodeFlags.height <= 0 {
		return codec.VideoInfo{}, fmt.Errorf("invalid geometry %dx%d", encodeFlags.width, encodeFlags.height)
	}

	return codec.VideoInfo{
		Width:      encodeFlags.width,
		Height:     encodeFlags.height,
		FPS:        fps,
		Format:     format,
		ColorSpace: cs,
		Range:      vr,
	}, nil
}

func parseRational(s string) (codec.Rational, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return codec.Rational{}, fmt.Errorf("invalid frame rate %q", s)
	}
	d := 1
	if found {
		if d, err = strconv.Atoi(den); err != nil {
			return codec.Rational{}, fmt.Errorf("invalid frame rate %q", s)
		}
	}
	if n <= 0 || d <= 0 {
		return codec.Rational{}, fmt.Errorf("invalid frame rate %q", s)
	}
	return codec.Rational{Num: n, Den: d}, nil
}

func loggerFactory(level string) logging.LoggerFactory {
	lf := logging.NewDefaultLoggerFactory()
	switch strings.ToLower(level) {
	case "trace":
		lf.DefaultLogLevel = logging.LogLevelTrace
	case "debug":
		lf.DefaultLogLevel = logging.LogLevelDebug
	case "info":
		lf.DefaultLogLevel = logging.LogLevelInfo
	case "warn":
		lf.DefaultLogLevel = logging.LogLevelWarn
	case "error":
		lf.DefaultLogLevel = logging.LogLevelError
	}
	return lf
}

// avLogLevel maps a --log-level value onto libav's log levels. libav's own
// info output is per-frame noise, so info only lets warnings through.
func avLogLevel(level string) int32 {
	switch strings.ToLower(level) {
	case "trace":
		return ffi.LogDebug
	case "debug":
		return ffi.LogVerbose
	case "info":
		return ffi.LogWarning
	case "warn", "error":
		return ffi.LogError
	default:
		return ffi.LogWarning
	}
}

func libavcodecVersion() string {
	if err := ffi.LoadLibrary(); err != nil {
		return ""
	}
	return ffi.Version()
}
