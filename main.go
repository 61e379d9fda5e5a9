// Captures a camera color stream, hardware-encodes it with VAAPI, and
// stores the raw elementary stream to disk.
//
// Exit codes: 1 invalid arguments, 2 unopenable output file, 3 encoder
// initialization failure, 4 capture loop failed partway (the partial
// output file is kept), 0 on success.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/sk8ersteve/realsense-color-to-h264/config"
	"github.com/sk8ersteve/realsense-color-to-h264/journal"
	"github.com/sk8ersteve/realsense-color-to-h264/util"
	"github.com/sk8ersteve/realsense-color-to-h264/video"
	"github.com/sk8ersteve/realsense-color-to-h264/video/encode"
	"github.com/sk8ersteve/realsense-color-to-h264/video/sink"
	"github.com/sk8ersteve/realsense-color-to-h264/video/source"
)

var (
	configPath = flag.String("config", "", "Optional JSON config file, hot-reloaded on change.")
	device     = flag.String("device", "/dev/video0", "Camera device or capture URI.")
	journalDSN = flag.String("journal", "", "Optional MySQL DSN for the capture journal.")
	warmup     = flag.Int("warmup", -1, "Override the configured warm-up frame count.")
	verbose    = flag.Bool("v", false, "Enable debug logging.")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <width> <height> <framerate> <seconds> <file>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nexample:\n%s 640 360 30 5 output.hevc\n\n", os.Args[0])
	flag.PrintDefaults()
}

func positional(args []string) (width, height, framerate, seconds int, path string, err error) {
	ints := make([]int, 4)
	for i := 0; i < 4; i++ {
		ints[i], err = strconv.Atoi(args[i])
		if err != nil {
			return
		}
	}
	width, height, framerate, seconds = ints[0], ints[1], ints[2], ints[3]
	if width <= 0 || height <= 0 || framerate <= 0 || seconds < 0 {
		err = fmt.Errorf("dimensions and framerate must be positive, seconds non-negative")
		return
	}
	path = args[4]
	return
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 5 {
		usage()
		os.Exit(1)
	}
	width, height, framerate, seconds, path, err := positional(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad arguments: %v\n\n", err)
		usage()
		os.Exit(1)
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *configPath != "" {
		if err := config.Load(ctx, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config %v: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	cfg := config.Get()

	warmupCount := cfg.WarmupFrames
	if *warmup >= 0 {
		warmupCount = *warmup
	}

	out, err := sink.NewFileSink(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open output file %v: %v\n", path, err)
		os.Exit(2)
	}

	cam, err := source.NewCamera(source.CameraOptions{
		URI:       *device,
		Width:     width,
		Height:    height,
		Framerate: framerate,
		FourCC:    "YUYV",
	})
	if err != nil {
		log.Fatalf("Failed to open camera %v: %v", *device, err)
	}
	defer cam.Close()

	ffmpegPath, err := util.LocateFFmpeg()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to locate ffmpeg binary:", err)
		fmt.Fprintln(os.Stderr, "FFmpeg is required for hardware encoding.")
		fmt.Fprintln(os.Stderr, "Either ensure the ffmpeg binary is in $PATH,")
		fmt.Fprintln(os.Stderr, "or set the FFMPEG environment variable.")
		os.Exit(3)
	}
	log.Debugf("Located ffmpeg binary, %v", ffmpegPath)

	enc, err := encode.NewVAAPI(encode.VAAPIOptions{
		FFmpeg:      ffmpegPath,
		Width:       width,
		Height:      height,
		Framerate:   framerate,
		PixelFormat: cfg.PixelFormat,
		Codec:       cfg.Codec,
		Device:      cfg.Device,
		QP:          cfg.QP,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize encoder: %v\n", err)
		os.Exit(3)
	}

	pump := &video.Pump{Source: cam, Encoder: enc, Sink: out}
	pump.WarmUp(warmupCount)
	sess := pump.Run(seconds * framerate)

	enc.Close()
	out.Close()

	log.Infof("Submitted %d/%d frames, wrote %d packets (%d bytes) in %v",
		sess.Submitted, sess.Target, sess.Packets, sess.Bytes, sess.Elapsed)

	if *journalDSN != "" {
		j, err := journal.Open(*journalDSN)
		if err != nil {
			log.Errorf("Failed to open capture journal: %v", err)
		} else {
			j.Record(&journal.Capture{
				Path:      path,
				Width:     width,
				Height:    height,
				Framerate: framerate,
				Target:    sess.Target,
				Submitted: sess.Submitted,
				Packets:   sess.Packets,
				Bytes:     sess.Bytes,
				Success:   sess.OK,
				Elapsed:   sess.Elapsed,
			})
		}
	}

	if !sess.OK {
		log.Errorf("Capture failed after %d of %d frames; partial stream kept at %v",
			sess.Submitted, sess.Target, path)
		os.Exit(4)
	}

	fmt.Println("Finished successfully.")
	fmt.Printf("Saved to:\n\n%s\n", path)
}
