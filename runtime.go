package detlite

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// Provider is the execution provider a session runs inference on
type Provider string

// Execution providers known to the runtime
const (
	// ProviderCPU runs the Model on the ONNX Runtime default CPU provider
	ProviderCPU Provider = "cpu"
	// ProviderGPU runs the Model on the CUDA provider
	ProviderGPU Provider = "gpu"
)

// Valid reports if the provider is one the runtime supports
func (p Provider) Valid() bool {
	return p == ProviderCPU || p == ProviderGPU
}

// String returns the provider name
func (p Provider) String() string {
	return string(p)
}

// ParseProvider returns the Provider for the given name.  Unknown names
// return a ProviderUnsupportedError
func ParseProvider(name string) (Provider, error) {

	p := Provider(strings.ToLower(strings.TrimSpace(name)))

	if !p.Valid() {
		return p, &ProviderUnsupportedError{Provider: Provider(name)}
	}

	return p, nil
}

// Runtime creates inference sessions for Model files
type Runtime interface {
	// CreateSession loads the Model file and prepares it to run on the given
	// execution provider
	CreateSession(modelFile string, provider Provider) (Session, error)
}

// Session is a loaded Model ready to run inference.  A Session is not safe
// for concurrent use
type Session interface {
	// Run performs inference on the given input tensors, one per Model input
	Run(inputs ...Tensor) (*Outputs, error)
	// InputAttrs returns the Model input tensor attributes
	InputAttrs() []TensorAttr
	// OutputAttrs returns the Model output tensor attributes
	OutputAttrs() []TensorAttr
	// Close releases the session
	Close() error
}

// environment tracks the process wide ONNX Runtime environment which can
// only be initialized once
var environment struct {
	sync.Mutex
	refs int
}

// ONNXRuntime is a Runtime backed by the ONNX Runtime shared library
type ONNXRuntime struct {
	// libPath is the path to the onnxruntime shared library, empty uses the
	// platform default
	libPath string
	// intraOpThreads is the number of threads used to parallelize execution
	// within nodes, 0 lets ONNX Runtime decide
	intraOpThreads int
	// interOpThreads is the number of threads used to parallelize execution
	// across nodes, 0 lets ONNX Runtime decide
	interOpThreads int
	// cudaDevice is the GPU device id used by the gpu provider
	cudaDevice int
	log        *zap.Logger
	closeOnce  sync.Once
}

// RuntimeOption sets optional ONNXRuntime parameters
type RuntimeOption func(*ONNXRuntime)

// WithSharedLibraryPath sets the path to the onnxruntime shared library
func WithSharedLibraryPath(path string) RuntimeOption {
	return func(r *ONNXRuntime) {
		r.libPath = path
	}
}

// WithIntraOpThreads sets the number of threads used within a node
func WithIntraOpThreads(n int) RuntimeOption {
	return func(r *ONNXRuntime) {
		r.intraOpThreads = n
	}
}

// WithInterOpThreads sets the number of threads used across nodes
func WithInterOpThreads(n int) RuntimeOption {
	return func(r *ONNXRuntime) {
		r.interOpThreads = n
	}
}

// WithCUDADevice sets the GPU device id used by the gpu provider
func WithCUDADevice(id int) RuntimeOption {
	return func(r *ONNXRuntime) {
		r.cudaDevice = id
	}
}

// WithLogger sets the logger, the default discards all output
func WithLogger(l *zap.Logger) RuntimeOption {
	return func(r *ONNXRuntime) {
		r.log = l
	}
}

// NewONNXRuntime initializes the ONNX Runtime environment and returns a
// Runtime to create sessions with.  Call Close once all sessions are closed
func NewONNXRuntime(opts ...RuntimeOption) (*ONNXRuntime, error) {

	r := &ONNXRuntime{
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	environment.Lock()
	defer environment.Unlock()

	if environment.refs == 0 && !ort.IsInitialized() {

		if r.libPath != "" {
			ort.SetSharedLibraryPath(r.libPath)
		}

		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("error initializing onnxruntime environment: %w", err)
		}

		r.log.Debug("onnxruntime environment initialized",
			zap.String("library", r.libPath))
	}

	environment.refs++

	return r, nil
}

// Close releases the ONNX Runtime environment when the last ONNXRuntime
// using it is closed
func (r *ONNXRuntime) Close() error {

	var err error

	r.closeOnce.Do(func() {
		environment.Lock()
		defer environment.Unlock()

		environment.refs--

		if environment.refs > 0 {
			return
		}

		if e := ort.DestroyEnvironment(); e != nil {
			err = fmt.Errorf("error destroying onnxruntime environment: %w", e)
		}
	})

	return err
}

// CreateSession loads the Model file and returns a Session running on the
// given provider.  The provider is checked before the Model is touched
func (r *ONNXRuntime) CreateSession(modelFile string, provider Provider) (Session, error) {

	if !provider.Valid() {
		return nil, &ProviderUnsupportedError{Provider: provider}
	}

	// check file exists before handing it to the runtime
	info, err := os.Stat(modelFile)

	if err != nil {
		return nil, fmt.Errorf("model file does not exist at %s, error: %w",
			modelFile, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("model file is a directory")
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelFile)

	if err != nil {
		return nil, fmt.Errorf("error querying model io info: %w", err)
	}

	options, err := r.sessionOptions(provider)

	if err != nil {
		return nil, err
	}

	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelFile,
		ioNames(inputInfo), ioNames(outputInfo), options)

	if err != nil {
		return nil, fmt.Errorf("error creating %s session: %w", provider, err)
	}

	s, err := newORTSession(session, inputInfo, outputInfo)

	if err != nil {
		session.Destroy()
		return nil, err
	}

	r.log.Debug("session created",
		zap.String("model", modelFile),
		zap.Stringer("provider", provider),
		zap.Uint32("inputs", s.ioNum.NumberInput),
		zap.Uint32("outputs", s.ioNum.NumberOutput),
	)

	return s, nil
}

// sessionOptions builds the session options for the provider
func (r *ONNXRuntime) sessionOptions(provider Provider) (*ort.SessionOptions, error) {

	options, err := ort.NewSessionOptions()

	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}

	if r.intraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(r.intraOpThreads); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("error setting intra op threads: %w", err)
		}
	}

	if r.interOpThreads > 0 {
		if err := options.SetInterOpNumThreads(r.interOpThreads); err != nil {
			options.Destroy()
			return nil, fmt.Errorf("error setting inter op threads: %w", err)
		}
	}

	if provider == ProviderGPU {
		if err := r.appendCUDA(options); err != nil {
			options.Destroy()
			return nil, err
		}
	}

	return options, nil
}

// appendCUDA adds the CUDA execution provider to the session options
func (r *ONNXRuntime) appendCUDA(options *ort.SessionOptions) error {

	cuda, err := ort.NewCUDAProviderOptions()

	if err != nil {
		return fmt.Errorf("error creating CUDA provider options: %w", err)
	}

	defer cuda.Destroy()

	err = cuda.Update(map[string]string{
		"device_id": strconv.Itoa(r.cudaDevice),
	})

	if err != nil {
		return fmt.Errorf("error setting CUDA device: %w", err)
	}

	if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
		return fmt.Errorf("error enabling CUDA provider: %w", err)
	}

	return nil
}

// ioNames returns the tensor names of the given io info in order
func ioNames(info []ort.InputOutputInfo) []string {

	names := make([]string, len(info))

	for i, in := range info {
		names[i] = in.Name
	}

	return names
}
