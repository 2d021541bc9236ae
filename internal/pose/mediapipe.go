package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// MediaPipeEstimator implements Estimator using a Python MediaPipe subprocess.
// Each instance owns its own subprocess so that MediaPipe's internal tracking
// state stays tied to one region; instances are never shared or restarted
// mid-stream.
type MediaPipeEstimator struct {
	config  Config
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	mu      sync.Mutex
	started bool
}

// MediaPipeFactory builds MediaPipeEstimator instances with a shared Config.
type MediaPipeFactory struct {
	config Config
}

// NewMediaPipeFactory creates a factory for MediaPipe estimators.
// It fails fast when the Python service script cannot be located.
func NewMediaPipeFactory(config Config) (*MediaPipeFactory, error) {
	if findPoseScript() == "" {
		return nil, fmt.Errorf("pose_service.py not found")
	}
	return &MediaPipeFactory{config: config}, nil
}

// New constructs a fresh estimator. The Python process is started lazily on
// first Process call.
func (f *MediaPipeFactory) New() (Estimator, error) {
	return &MediaPipeEstimator{config: f.config}, nil
}

// Process analyzes a region and returns detected pose landmarks, or
// (nil, nil) when MediaPipe reports no pose in the region.
func (e *MediaPipeEstimator) Process(region *gocv.Mat) (*Landmarks, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode region as JPEG
	buf, err := gocv.IMEncode(".jpg", *region)
	if err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := e.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := e.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	// Read JSON response
	line, err := e.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Pose *jsonPose `json:"pose"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if response.Pose == nil {
		return nil, nil
	}
	return response.Pose.toLandmarks(), nil
}

// Close shuts down the Python process.
func (e *MediaPipeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *MediaPipeEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	scriptPath := findPoseScript()
	if scriptPath == "" {
		return fmt.Errorf("pose_service.py not found")
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	e.cmd = exec.Command(pythonPath, scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(e.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(e.config.MinTrackingConf, 'f', -1, 64),
		"--model-complexity", strconv.Itoa(e.config.ModelComplexity),
	)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true

	return nil
}

func (e *MediaPipeEstimator) shutdown() error {
	if !e.started {
		return nil
	}

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	return err
}

func findPoseScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".multisocial/scripts/pose_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".multisocial/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPose represents the JSON structure from the Python service.
type jsonPose struct {
	Points []jsonPoint `json:"points"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

func (p jsonPose) toLandmarks() *Landmarks {
	lm := &Landmarks{}
	for i := 0; i < NumLandmarks && i < len(p.Points); i++ {
		lm.Points[i] = Point{
			X:          p.Points[i].X,
			Y:          p.Points[i].Y,
			Z:          p.Points[i].Z,
			Visibility: p.Points[i].Visibility,
		}
	}
	return lm
}
