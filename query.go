package detlite

import (
	"fmt"
	"io"

	ort "github.com/yalue/onnxruntime_go"
)

// Query the Model file to get its input and output tensor information in
// text/human readable format.  The onnxruntime environment must be
// initialized, see NewONNXRuntime
func Query(w io.Writer, modelFile string) error {

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelFile)

	if err != nil {
		return fmt.Errorf("error querying model io info: %w", err)
	}

	fmt.Fprintf(w, "Model Input Number: %d, Output Number: %d\n",
		len(inputInfo), len(outputInfo))

	fmt.Fprintf(w, "Input tensors:\n")

	for i, info := range inputInfo {
		fmt.Fprintf(w, "  %s\n", convertTensorAttr(i, info).String())
	}

	fmt.Fprintf(w, "Output tensors:\n")

	for i, info := range outputInfo {
		fmt.Fprintf(w, "  %s\n", convertTensorAttr(i, info).String())
	}

	return nil
}
