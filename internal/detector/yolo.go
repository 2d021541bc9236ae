package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// cocoNames lists the 80 COCO class names in model output order.
// Person is class 0.
var cocoNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train",
	"truck", "boat", "traffic light", "fire hydrant", "stop sign",
	"parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag",
	"tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard",
	"tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot",
	"hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote",
	"keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

// YOLODetector implements Detector using a YOLOv5 ONNX model through the
// OpenCV DNN module.
type YOLODetector struct {
	config Config
	net    gocv.Net
}

// NewYOLODetector loads the ONNX model at config.ModelPath.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load detection model %s", config.ModelPath)
	}
	return &YOLODetector{config: config, net: net}, nil
}

// Detect runs the network over the full frame and returns detections above
// the confidence threshold, after non-maximum suppression.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	size := d.config.InputSize
	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read network output: %w", err)
	}

	// YOLOv5 output rows: cx, cy, w, h, objectness, then one score per class.
	const stride = 5 + 80
	scaleX := float64(frame.Cols()) / float64(size)
	scaleY := float64(frame.Rows()) / float64(size)

	var boxes []image.Rectangle
	var scores []float32
	var classes []int
	for row := 0; row+stride <= len(data); row += stride {
		obj := data[row+4]
		bestClass := 0
		bestScore := float32(0)
		for c := 0; c < 80; c++ {
			if s := data[row+5+c]; s > bestScore {
				bestScore = s
				bestClass = c
			}
		}
		conf := obj * bestScore
		if float64(conf) < d.config.MinConfidence {
			continue
		}

		cx := float64(data[row]) * scaleX
		cy := float64(data[row+1]) * scaleY
		w := float64(data[row+2]) * scaleX
		h := float64(data[row+3]) * scaleY
		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2)))
		scores = append(scores, conf)
		classes = append(classes, bestClass)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, scores,
		float32(d.config.MinConfidence), float32(d.config.NMSThreshold))

	detections := make([]Detection, 0, len(indices))
	for _, i := range indices {
		class := "unknown"
		if classes[i] < len(cocoNames) {
			class = cocoNames[classes[i]]
		}
		detections = append(detections, Detection{
			Box:        boxes[i],
			Class:      class,
			Confidence: float64(scores[i]),
		})
	}
	return detections, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}
