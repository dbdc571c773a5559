/*
Example program that detects people in a camera or video stream and draws
boxes around them, either in a desktop window or as an MJPEG stream viewed in
a browser.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/detlite/go-detlite"
	"github.com/detlite/go-detlite/capture"
	"github.com/detlite/go-detlite/config"
	"github.com/detlite/go-detlite/detector"
	"github.com/detlite/go-detlite/logging"
	"github.com/detlite/go-detlite/postprocess"
	"github.com/detlite/go-detlite/preprocess"
	"github.com/detlite/go-detlite/render"
	"github.com/detlite/go-detlite/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags, set flags override the config file
	configFile := flag.String("c", "", "YAML config file")
	provider := flag.String("p", "", "Execution provider [cpu|gpu]")
	variant := flag.String("t", "", "Model variant [grid-based|region-proposal]")
	modelFile := flag.String("m", "", "ONNX model file, defaults to the variant's model")
	threshold := flag.Float64("th", -1, "Confidence threshold within [0,1]")
	source := flag.String("v", "", "Camera index, video file or stream URL")
	display := flag.String("d", "", "Display frames in a [window|mjpeg] stream")
	httpAddr := flag.String("a", "", "HTTP address for metrics and the mjpeg stream, format address:port")
	ortLib := flag.String("l", "", "ONNX Runtime shared library path")
	cpuCores := flag.String("cpus", "", "CPU cores to pin the process to, eg: 4-7")
	query := flag.Bool("q", false, "Print the model's input and output tensors and exit")

	flag.Parse()

	cfg := config.Default()

	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)

		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.ExecutionProvider = *provider
		case "t":
			cfg.ModelVariant = *variant
		case "th":
			cfg.ConfidenceThreshold = float32(*threshold)
		case "v":
			cfg.Capture.Source = *source
		case "d":
			cfg.Stream.Display = *display
		case "a":
			cfg.MetricsAddr = *httpAddr
		case "l":
			cfg.Runtime.SharedLibraryPath = *ortLib
		case "cpus":
			cfg.CPUCores = *cpuCores
		}
	})

	// applied once the variant is known
	if *modelFile != "" {
		if v, err := detector.ParseVariant(cfg.ModelVariant); err == nil && v == detector.RegionProposal {
			cfg.Models.SSDMobileNetV1 = *modelFile
		} else {
			cfg.Models.TinyYOLOv2 = *modelFile
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *query {
		if err := queryModel(cfg); err != nil {
			log.Fatalf("Error querying model: %v", err)
		}
		return
	}

	logger, err := logging.Install(cfg.Log)

	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}

	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

// run builds the pipeline from the configuration and runs it until
// interrupted or the source ends
func run(cfg *config.Config, logger *zap.Logger) error {

	if cfg.CPUCores != "" {
		cores, err := detlite.ParseCPUList(cfg.CPUCores)

		if err != nil {
			return err
		}

		if err := detlite.SetCPUAffinity(cores); err != nil {
			logger.Warn("failed to set CPU affinity", zap.Error(err))
		}

		if pinned, err := detlite.GetCPUAffinity(); err == nil {
			logger.Info("running on cpu cores", zap.Ints("cores", pinned))
		}
	}

	variant, err := detector.ParseVariant(cfg.ModelVariant)

	if err != nil {
		return err
	}

	filter, err := preprocess.ParseFilter(cfg.Models.ResizeFilter)

	if err != nil {
		return err
	}

	var overlayOpts []render.OverlayOption
	clr := render.Yellow

	if cfg.Stream.OverlayColor == "palette" {
		overlayOpts = append(overlayOpts, render.WithPalette())
	} else if clr, err = render.ParseColor(cfg.Stream.OverlayColor); err != nil {
		return err
	}

	align, err := render.ParseAlignment(cfg.Stream.LabelAlignment)

	if err != nil {
		return err
	}

	label, err := boxLabel(cfg, variant)

	if err != nil {
		return err
	}

	overlayOpts = append(overlayOpts, render.WithLabel(label), render.WithLabelAlignment(align))

	rt, err := detlite.NewONNXRuntime(
		detlite.WithSharedLibraryPath(cfg.Runtime.SharedLibraryPath),
		detlite.WithIntraOpThreads(cfg.Runtime.IntraOpThreads),
		detlite.WithInterOpThreads(cfg.Runtime.InterOpThreads),
		detlite.WithCUDADevice(cfg.Runtime.CUDADevice),
		detlite.WithLogger(logger),
	)

	if err != nil {
		return err
	}

	defer rt.Close()

	det, err := detector.New(variant, rt, detlite.Provider(cfg.ExecutionProvider),
		cfg.ConfidenceThreshold,
		detector.WithModelFile(cfg.ModelFile()),
		detector.WithResizeFilter(filter),
		detector.WithLogger(logger),
	)

	if err != nil {
		return err
	}

	defer det.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics, err := stream.NewMetrics(reg)

	if err != nil {
		return err
	}

	var (
		disp  render.Display
		mjpeg *render.MJPEG
	)

	if cfg.Stream.Display == "mjpeg" {
		mjpeg = render.NewMJPEG()
		disp = mjpeg
	} else {
		disp = render.NewWindow("detlite")
	}

	overlay := render.NewOverlay(disp, clr, overlayOpts...)

	src, err := capture.Start(cfg.Capture.Source,
		capture.WithSize(cfg.Capture.Width, cfg.Capture.Height),
		capture.WithLogger(logger),
	)

	if err != nil {
		overlay.Close()
		return err
	}

	meter := stream.NewFPSMeter(cfg.Stream.FPSFrequency, func(fps string) {
		overlay.SetStatus(fmt.Sprintf("FPS: %s", fps))
		logger.Debug("frame rate sampled", zap.String("fps", fps))
	}, stream.WithFPSGauge(metrics.FPS))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {

		var handler http.Handler

		if mjpeg != nil {
			handler = mjpeg
		}

		srv := newServer(cfg.MetricsAddr, newRouter(reg, det, handler, logger))

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", zap.Error(err))
			}
		}()

		defer srv.Shutdown(context.Background())

		if mjpeg != nil {
			logger.Info(fmt.Sprintf("Open browser and view video at http://%s/stream",
				cfg.MetricsAddr))
		}
	}

	pipeline := stream.New(src, det, overlay,
		stream.WithPacer(stream.NewRefreshPacer(clock.New(), float64(cfg.Stream.RefreshRate))),
		stream.WithStages(meter),
		stream.WithMetrics(metrics),
		stream.WithLogger(logger),
	)

	// the window display must be driven from the main goroutine
	err = pipeline.Run(ctx)

	logger.Info("finished",
		zap.Stringer("state", pipeline.State()),
		zap.Uint64("frames", pipeline.Frames()),
	)

	return err
}

// queryModel prints the input and output tensors of the configured Model
func queryModel(cfg *config.Config) error {

	rt, err := detlite.NewONNXRuntime(
		detlite.WithSharedLibraryPath(cfg.Runtime.SharedLibraryPath))

	if err != nil {
		return err
	}

	defer rt.Close()

	return detlite.Query(os.Stdout, cfg.ModelFile())
}

// boxLabel returns the text drawn above each box, the configured label or
// the name of the class being detected
func boxLabel(cfg *config.Config, variant detector.Variant) (string, error) {

	if cfg.Stream.Label != "" {
		return cfg.Stream.Label, nil
	}

	labels := detlite.VOCLabels
	classID := postprocess.TinyYOLOv2VOCParams().ClassOfInterest

	if variant == detector.RegionProposal {
		classID = postprocess.SSDMobileNetCOCOParams().ClassOfInterest
		labels = nil
	}

	if cfg.Models.LabelFile != "" {
		var err error
		labels, err = detlite.LoadLabels(cfg.Models.LabelFile)

		if err != nil {
			return "", err
		}
	}

	if labels == nil {
		return "", nil
	}

	return detlite.Label(labels, classID), nil
}
