package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
	// FlipMS is the moving average of the time spent inside the device flip.
	FlipMS    float64
	FlipTimes [AVG_COUNT]float64
	flipIndex uint8
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [AVG_COUNT]float64{0},
		}
	})
	return nil
}

// MetricsUpdate records one frame. frameElapsedTime is in seconds.
func MetricsUpdate(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := (frameElapsedTime * 1000.0)
	metricsState.MStimes[metricsState.FrameAVGCounter] = frameMS
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		metricsState.MSavg = average(metricsState.MStimes[:])
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	// Count all Frames.
	metricsState.Frames++
}

// MetricsRecordFlip records how long the device blocked inside flip.
func MetricsRecordFlip(d time.Duration) {
	metricsState.FlipTimes[metricsState.flipIndex] = float64(d) / float64(time.Millisecond)
	if metricsState.flipIndex == AVG_COUNT-1 {
		metricsState.FlipMS = average(metricsState.FlipTimes[:])
	}
	metricsState.flipIndex++
	metricsState.flipIndex %= AVG_COUNT
}

func MetricsFPS() float64 {
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	return metricsState.MSavg
}

func MetricsFlipTime() float64 {
	return metricsState.FlipMS
}

func MetricsFrame() (float64, float64) {
	return metricsState.FPS, metricsState.MSavg
}

func average(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
