package core

import "sync"

const AVG_COUNT uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
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

// MetricsUpdate records one frame sample. frameElapsed is the frame duration
// in seconds. No-op until MetricsInitialize has run.
func MetricsUpdate(frameElapsed float64) {
	if metricsState == nil {
		return
	}

	// Rolling frame-ms average over the last AVG_COUNT frames.
	frameMS := frameElapsed * 1000.0
	metricsState.MStimes[metricsState.FrameAVGCounter] = frameMS
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += metricsState.MStimes[i]
		}
		metricsState.MSavg = sum / float64(AVG_COUNT)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	// Frames per second over a sliding one second window.
	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	metricsState.Frames++
}

func MetricsFPS() float64 {
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	return metricsState.MSavg
}

func MetricsFrame() (float64, float64) {
	return metricsState.FPS, metricsState.MSavg
}
