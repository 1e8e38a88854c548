// Package onnx scores encoded domains with a local ONNX model.
package onnx

import (
	"fmt"
	"math"
	"sync"

	"github.com/mikey/url-guard/internal/preprocess"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// Options configures the onnxruntime environment and session
type Options struct {
	SharedLibraryPath string
	IntraOpThreads    int
}

// Oracle runs the model over pre-allocated input and output tensors.
// onnxruntime sessions are not safe for concurrent Run calls on shared
// tensors, so Score is serialized.
type Oracle struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	seq     *ort.Tensor[int32]
	numeric *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	binding Binding
	logger  *zap.Logger
	closed  bool
}

var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs > 0 {
		return nil
	}
	envRefs = 0
	return ort.DestroyEnvironment()
}

// NewOracle inspects the model, binds its inputs by role and opens a session
func NewOracle(modelPath string, opts Options, logger *zap.Logger) (*Oracle, error) {
	if err := acquireEnvironment(opts.SharedLibraryPath); err != nil {
		return nil, err
	}

	o, err := newOracle(modelPath, opts, logger)
	if err != nil {
		if o != nil {
			o.destroyTensors()
		}
		_ = releaseEnvironment()
		return nil, err
	}
	return o, nil
}

func newOracle(modelPath string, opts Options, logger *zap.Logger) (*Oracle, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model %s: %w", modelPath, err)
	}

	binding, err := BindInputs(fromInfo(inputs))
	if err != nil {
		return nil, err
	}
	outputName, err := BindOutput(fromInfo(outputs))
	if err != nil {
		return nil, err
	}

	o := &Oracle{binding: binding, logger: logger}

	o.seq, err = ort.NewEmptyTensor[int32](ort.NewShape(1, preprocess.SequenceLength))
	if err != nil {
		return o, fmt.Errorf("failed to allocate sequence tensor: %w", err)
	}
	o.numeric, err = ort.NewEmptyTensor[float32](ort.NewShape(1, preprocess.FeatureCount))
	if err != nil {
		return o, fmt.Errorf("failed to allocate numeric tensor: %w", err)
	}
	o.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return o, fmt.Errorf("failed to allocate output tensor: %w", err)
	}

	values := make([]ort.Value, 2)
	values[binding.SequenceIndex] = o.seq
	values[binding.NumericIndex] = o.numeric

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return o, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOpts.Destroy()

	if opts.IntraOpThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return o, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	o.session, err = ort.NewAdvancedSession(modelPath,
		binding.InputNames(), []string{outputName},
		values, []ort.Value{o.output}, sessionOpts)
	if err != nil {
		return o, fmt.Errorf("failed to create session for %s: %w", modelPath, err)
	}

	logger.Info("Loaded ONNX model",
		zap.String("model", modelPath),
		zap.String("sequence_input", binding.SequenceName),
		zap.Int("sequence_position", binding.SequenceIndex),
		zap.String("numeric_input", binding.NumericName),
		zap.Int("numeric_position", binding.NumericIndex),
		zap.String("output", outputName))

	return o, nil
}

// Score implements core.Oracle
func (o *Oracle) Score(seq *preprocess.EncodedSequence, features *preprocess.FeatureVector) (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, fmt.Errorf("onnx oracle is closed")
	}

	copy(o.seq.GetData(), seq[:])
	numeric := o.numeric.GetData()
	for i, v := range features {
		numeric[i] = float32(v)
	}

	if err := o.session.Run(); err != nil {
		return 0, fmt.Errorf("model run failed: %w", err)
	}

	return checkScore(o.output.GetData()[0])
}

// Close releases the session, its tensors and the runtime environment
func (o *Oracle) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	o.destroyTensors()
	return releaseEnvironment()
}

func (o *Oracle) destroyTensors() {
	if o.session != nil {
		if err := o.session.Destroy(); err != nil {
			o.logger.Warn("Failed to destroy ONNX session", zap.Error(err))
		}
	}
	if o.seq != nil {
		_ = o.seq.Destroy()
	}
	if o.numeric != nil {
		_ = o.numeric.Destroy()
	}
	if o.output != nil {
		_ = o.output.Destroy()
	}
}

func checkScore(p float32) (float64, error) {
	score := float64(p)
	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScore, score)
	}
	return score, nil
}
