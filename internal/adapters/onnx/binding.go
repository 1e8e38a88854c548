package onnx

import (
	"errors"
	"fmt"

	"github.com/mikey/url-guard/internal/preprocess"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrAmbiguousInputs is returned when the model inputs cannot be mapped
	// one-to-one onto the sequence and numeric roles
	ErrAmbiguousInputs = errors.New("ambiguous model inputs")
	// ErrUnsupportedInput is returned when a bound input has an element type the oracle cannot feed
	ErrUnsupportedInput = errors.New("unsupported model input")
	// ErrUnsupportedOutput is returned when the model does not produce a single float score
	ErrUnsupportedOutput = errors.New("unsupported model output")
	// ErrInvalidScore is returned when the model produces a score outside [0,1]
	ErrInvalidScore = errors.New("invalid model score")
)

// InputDescriptor describes one declared model input or output
type InputDescriptor struct {
	Name     string
	DataType ort.TensorElementDataType
	Shape    []int64
}

// Binding records which input position receives which tensor
type Binding struct {
	SequenceIndex int
	SequenceName  string
	NumericIndex  int
	NumericName   string
}

// InputNames returns the input names in model order
func (b Binding) InputNames() []string {
	names := make([]string, 2)
	names[b.SequenceIndex] = b.SequenceName
	names[b.NumericIndex] = b.NumericName
	return names
}

// BindInputs maps the two declared inputs onto the sequence role (integer,
// [batch,SequenceLength]) and the numeric role (float, [batch,FeatureCount]).
// A dynamic leading dimension is accepted as the batch dimension.
func BindInputs(inputs []InputDescriptor) (Binding, error) {
	if len(inputs) != 2 {
		return Binding{}, fmt.Errorf("%w: model declares %d inputs, want 2", ErrAmbiguousInputs, len(inputs))
	}

	seq, num := -1, -1
	seqCount, numCount := 0, 0
	for i, in := range inputs {
		switch {
		case isInteger(in.DataType) && hasRowShape(in.Shape, preprocess.SequenceLength):
			seq = i
			seqCount++
		case isFloat(in.DataType) && hasRowShape(in.Shape, preprocess.FeatureCount):
			num = i
			numCount++
		}
	}

	if seqCount != 1 || numCount != 1 {
		return Binding{}, fmt.Errorf("%w: %s, %s matched %d sequence and %d numeric roles",
			ErrAmbiguousInputs, describe(inputs[0]), describe(inputs[1]), seqCount, numCount)
	}

	if inputs[seq].DataType != ort.TensorElementDataTypeInt32 {
		return Binding{}, fmt.Errorf("%w: sequence input %q has element type %v, want int32",
			ErrUnsupportedInput, inputs[seq].Name, inputs[seq].DataType)
	}
	if inputs[num].DataType != ort.TensorElementDataTypeFloat {
		return Binding{}, fmt.Errorf("%w: numeric input %q has element type %v, want float32",
			ErrUnsupportedInput, inputs[num].Name, inputs[num].DataType)
	}

	return Binding{
		SequenceIndex: seq,
		SequenceName:  inputs[seq].Name,
		NumericIndex:  num,
		NumericName:   inputs[num].Name,
	}, nil
}

// BindOutput checks that the model has exactly one float32 output holding one value
func BindOutput(outputs []InputDescriptor) (string, error) {
	if len(outputs) != 1 {
		return "", fmt.Errorf("%w: model declares %d outputs, want 1", ErrUnsupportedOutput, len(outputs))
	}

	out := outputs[0]
	if out.DataType != ort.TensorElementDataTypeFloat {
		return "", fmt.Errorf("%w: output %q has element type %v, want float32",
			ErrUnsupportedOutput, out.Name, out.DataType)
	}
	for i, d := range out.Shape {
		if d == 1 || (i == 0 && d <= 0) {
			continue
		}
		return "", fmt.Errorf("%w: output %q has shape %v, want a single value",
			ErrUnsupportedOutput, out.Name, out.Shape)
	}
	return out.Name, nil
}

func hasRowShape(shape []int64, width int) bool {
	if len(shape) != 2 {
		return false
	}
	batchOK := shape[0] == 1 || shape[0] <= 0
	return batchOK && shape[1] == int64(width)
}

func isInteger(t ort.TensorElementDataType) bool {
	switch t {
	case ort.TensorElementDataTypeInt8, ort.TensorElementDataTypeInt16,
		ort.TensorElementDataTypeInt32, ort.TensorElementDataTypeInt64,
		ort.TensorElementDataTypeUint8, ort.TensorElementDataTypeUint16,
		ort.TensorElementDataTypeUint32, ort.TensorElementDataTypeUint64:
		return true
	}
	return false
}

func isFloat(t ort.TensorElementDataType) bool {
	switch t {
	case ort.TensorElementDataTypeFloat, ort.TensorElementDataTypeDouble,
		ort.TensorElementDataTypeFloat16, ort.TensorElementDataTypeBFloat16:
		return true
	}
	return false
}

func describe(in InputDescriptor) string {
	return fmt.Sprintf("%q%v", in.Name, in.Shape)
}

func fromInfo(infos []ort.InputOutputInfo) []InputDescriptor {
	out := make([]InputDescriptor, len(infos))
	for i, info := range infos {
		out[i] = InputDescriptor{
			Name:     info.Name,
			DataType: info.DataType,
			Shape:    []int64(info.Dimensions),
		}
	}
	return out
}
