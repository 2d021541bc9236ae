package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/app"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/capture"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/detector"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/pose"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/server"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/store"
	"github.com/Muneeb-ii/MultiSOCIAL-toolbox/internal/track"
)

func main() {
	fmt.Println("MultiSOCIAL Toolbox - Pose Extraction")

	// Optional .env file for model paths and directories
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded configuration from .env")
	}

	var (
		videoPath  = flag.String("video", "", "video file to process")
		multi      = flag.Bool("multi", false, "track multiple people")
		outDir     = flag.String("out", envOr("MULTISOCIAL_OUT_DIR", "."), "directory for landmark CSV files")
		overlayDir = flag.String("overlay", os.Getenv("MULTISOCIAL_OVERLAY_DIR"), "directory for overlay videos (empty disables)")
		modelPath  = flag.String("model", envOr("MULTISOCIAL_MODEL", detector.DefaultConfig().ModelPath), "person detection model (ONNX)")
		serve      = flag.Bool("serve", false, "run the HTTP job server instead of processing one video")
		addr       = flag.String("addr", envOr("MULTISOCIAL_ADDR", ":8080"), "server listen address")
		dbPath     = flag.String("db", "", "SQLite database path (default ~/.multisocial/multisocial.db)")
	)
	flag.Parse()

	if !*serve && *videoPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	detConfig := detector.DefaultConfig()
	detConfig.ModelPath = *modelPath
	det, err := detector.NewYOLODetector(detConfig)
	if err != nil {
		log.Fatalf("Failed to load person detector: %v", err)
	}
	defer det.Close()

	factory, err := pose.NewMediaPipeFactory(pose.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to set up pose estimation: %v", err)
	}

	processor := app.NewProcessor(app.Config{
		OutputCSVDir:   *outDir,
		OutputVideoDir: *overlayDir,
		Track:          track.DefaultConfig(),
	}, det, factory)

	if *serve {
		runServer(processor, *addr, *dbPath)
		return
	}

	runOnce(processor, *videoPath, *multi, *overlayDir != "")
}

// runOnce processes a single video from the command line.
func runOnce(processor *app.Processor, videoPath string, multi, overlay bool) {
	mode := track.ModeSingle
	if multi {
		mode = track.ModeMulti
	}

	processor.SetStatusCallback(func(msg string) {
		fmt.Println(msg)
	})

	src, err := capture.OpenVideoFile(videoPath)
	if err != nil {
		log.Fatalf("Failed to open video: %v", err)
	}

	result, err := processor.ExtractPoseFeatures(src, videoPath, mode)
	src.Close()
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	for _, s := range result.Summaries {
		fmt.Printf("Person %d: %d/%d frames (%.0f%% coverage), mean visibility %.2f\n",
			s.PersonID, s.Frames, s.TotalFrames, s.Coverage*100, s.MeanVisibility)
	}

	if overlay {
		overlaySrc, err := capture.OpenVideoFile(videoPath)
		if err != nil {
			log.Fatalf("Failed to reopen video for overlay: %v", err)
		}
		overlayPath, err := processor.EmbedPoseVideo(overlaySrc, videoPath, mode)
		overlaySrc.Close()
		if err != nil {
			log.Fatalf("Overlay rendering failed: %v", err)
		}
		fmt.Printf("Wrote overlay video: %s\n", overlayPath)
	}
}

// runServer starts the HTTP job server backed by a SQLite store.
func runServer(processor *app.Processor, addr, dbPath string) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dbDir := filepath.Join(homeDir, ".multisocial")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "multisocial.db")
	}

	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	runner := app.NewRunner(st, processor)

	srv := server.New(server.Config{
		Store:  st,
		Runner: runner,
	})

	fmt.Printf("Starting server on %s\n", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
