package mqflow

import (
	runtimepkg "github.com/drblury/mqflow/internal/runtime"
	"github.com/drblury/mqflow/internal/runtime/blobstore"
	configpkg "github.com/drblury/mqflow/internal/runtime/config"
	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/extract"
	"github.com/drblury/mqflow/internal/runtime/format"
	handlerpkg "github.com/drblury/mqflow/internal/runtime/handlers"
	idspkg "github.com/drblury/mqflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/mqflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/mqflow/internal/runtime/metadata"
	metricspkg "github.com/drblury/mqflow/internal/runtime/metrics"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/internal/runtime/mqmd"
	"github.com/drblury/mqflow/internal/runtime/poller"
	sinkpkg "github.com/drblury/mqflow/internal/runtime/sink"
	"github.com/drblury/mqflow/transport"
	_ "github.com/drblury/mqflow/transport/transports"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	PollerInfo          = runtimepkg.PollerInfo
	Producer            = runtimepkg.Producer

	RetrieveRequest = runtimepkg.RetrieveRequest
	RetrieveResult  = runtimepkg.RetrieveResult

	// Queue client
	QueueClient    = mqclient.Client
	Connection     = mqclient.Connection
	RawMessage     = mqclient.RawMessage
	StatusRecord   = mqclient.StatusRecord
	TransportError = mqclient.TransportError
	Descriptor     = mqmd.Descriptor

	// Record handlers
	Handler         = handlerpkg.Handler
	HandlerKind     = handlerpkg.Kind
	HandlerDeps     = handlerpkg.Deps
	HandlerRequest  = handlerpkg.Request
	HandlerOptions  = handlerpkg.Options
	HandlerRegistry = handlerpkg.Registry
	HandlerFactory  = handlerpkg.Factory

	// Poll-and-dispatch loop
	Poller          = poller.Poller
	PollerConfig    = poller.Config
	PollTarget      = poller.Target
	PollerOption    = poller.Option
	Liveness        = poller.Liveness
	FileLiveness    = poller.FileLiveness
	MemoryLiveness  = poller.MemoryLiveness
	DispatchContext = poller.DispatchContext
	DispatchHooks   = poller.DispatchHooks

	Metrics         = metricspkg.Metrics
	TargetMetrics   = metricspkg.TargetMetrics
	MetricsSnapshot = metricspkg.Snapshot

	Sink         = sinkpkg.Sink
	SinkFunc     = sinkpkg.Func
	StreamWriter = sinkpkg.StreamWriter

	BlobStore = blobstore.Store

	// Extraction and formatting
	Encoding        = extract.Encoding
	ExtractionSpec  = extract.Spec
	SpanBounds      = extract.Bounds
	TranscodeResult = extract.Result
	Record          = format.Record

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError = errspkg.ConfigValidationError
	UnknownHandlerError   = errspkg.UnknownHandlerError
	InvalidOptionError    = errspkg.InvalidOptionError

	// Modular transport registry
	TransportBuilder      = transport.Builder
	TransportConfig       = transport.Config
	TransportRegistry     = transport.Registry
	TransportCapabilities = transport.Capabilities
	Credentials           = transport.Credentials
)

var (
	NewService       = runtimepkg.NewService
	NewProducer      = runtimepkg.NewProducer
	Retrieve         = runtimepkg.Retrieve
	ValidateConfig   = configpkg.ValidateConfig
	ParseList        = configpkg.ParseList
	ParseHandlerArgs = configpkg.ParseHandlerArgs

	NewWatermillClient = mqclient.NewWatermillClient
	IsTransportError   = mqclient.IsTransportError

	NewHandlerRegistry = handlerpkg.NewRegistry
	NewHandlerOptions  = handlerpkg.NewOptions
	ExtractBlob        = handlerpkg.ExtractBlob
	ExtractBitstream   = handlerpkg.ExtractBitstream

	NewPoller         = poller.New
	NewFileLiveness   = poller.NewFileLiveness
	WithLogger        = poller.WithLogger
	WithHooks         = poller.WithHooks
	WithMetrics       = poller.WithMetrics
	WithTracer        = poller.WithTracer
	LoggingHooks      = poller.LoggingHooks
	MetricsHooks      = poller.MetricsHooks
	NewMetrics        = metricspkg.New
	NewStreamWriter   = sinkpkg.NewStreamWriter
	NewPublisherSink  = sinkpkg.NewPublisherSink
	NewRedisBlobStore = blobstore.NewRedisStoreFromURL

	Printable       = extract.Printable
	PrintableString = extract.PrintableString
	FindSpans       = extract.FindSpans
	NormalizeLimit  = extract.NormalizeLimit
	Transcode       = extract.Transcode
	NewRecord       = format.NewRecord
	FormatRecord    = format.Format
	EscapeXML       = format.EscapeXML
	Envelope        = format.Envelope

	DefaultTransportRegistry = transport.DefaultRegistry
	RegisterTransport        = transport.Register
	BuildTransport           = transport.Build
	GetCapabilities          = transport.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrSuperseded        = poller.ErrSuperseded
	ErrNoMoreData        = mqclient.ErrNoMoreData
	ErrUnknownObject     = mqclient.ErrUnknownObject
	ErrStatusNotFound    = mqclient.ErrStatusNotFound
	ErrNothingToRetrieve = runtimepkg.ErrNothingToRetrieve
	ErrBlobNotFound      = blobstore.ErrNotFound

	ErrHandlerRequired    = errspkg.ErrHandlerRequired
	ErrClientRequired     = errspkg.ErrClientRequired
	ErrSinkRequired       = errspkg.ErrSinkRequired
	ErrTargetsRequired    = errspkg.ErrTargetsRequired
	ErrManagerRequired    = errspkg.ErrManagerRequired
	ErrLivenessRequired   = errspkg.ErrLivenessRequired
	ErrPublisherRequired  = errspkg.ErrPublisherRequired
	ErrTopicRequired      = errspkg.ErrTopicRequired
	ErrConfigRequired     = errspkg.ErrConfigRequired
	ErrLoggerRequired     = errspkg.ErrLoggerRequired
	ErrBlobStoreRequired  = errspkg.ErrBlobStoreRequired
	ErrInvalidHandlerArgs = errspkg.ErrInvalidHandlerArgs

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	DiscardLogger        = loggingpkg.Discard
	NewWatermillAdapter  = loggingpkg.NewWatermillAdapter

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID
)

// Handler names and kinds.
const (
	HandlerDefault = handlerpkg.NameDefault
	HandlerStatus  = handlerpkg.NameStatus
	HandlerEvent   = handlerpkg.NameEvent
	HandlerError   = handlerpkg.NameError

	KindQueue  = handlerpkg.KindQueue
	KindStatus = handlerpkg.KindStatus
)

// Binary encodings understood by the transcoder.
const (
	EncodingNone   = extract.EncodingNone
	EncodingHex    = extract.EncodingHex
	EncodingBase64 = extract.EncodingBase64
)

// Metadata keys read by the handlers.
const (
	// MetadataKeyBlobRef names the blob store document holding the payload.
	MetadataKeyBlobRef        = handlerpkg.MetadataKeyBlobRef
	MetadataKeyBlobCollection = handlerpkg.MetadataKeyBlobCollection
	// MetadataPrefix marks descriptor fields carried as transport metadata.
	MetadataPrefix = mqmd.Prefix
)
