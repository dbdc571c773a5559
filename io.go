package detlite

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// IONumber is the number of Input and Output tensors of a Model
type IONumber struct {
	NumberInput  uint32
	NumberOutput uint32
}

// QueryModelIONumber queries the number of Input and Output tensors of the
// Model file.  The onnxruntime environment must be initialized
func QueryModelIONumber(modelFile string) (IONumber, error) {

	inputs, outputs, err := ort.GetInputOutputInfo(modelFile)

	if err != nil {
		return IONumber{}, fmt.Errorf("error querying model io info: %w", err)
	}

	return IONumber{
		NumberInput:  uint32(len(inputs)),
		NumberOutput: uint32(len(outputs)),
	}, nil
}
