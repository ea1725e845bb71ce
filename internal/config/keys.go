package config

// Etcd server hostname
const ETCD_ADDRESS = "etcd.address"

// exposed port for the offloadml APIs
const API_PORT = "api.port"
const API_IP = "api.ip"

// Path of the telemetry dataset file
const STORAGE_DATA_FILE = "storage.datafile"

// Directory holding the published artifact sets
const ARTIFACTS_DIR = "artifacts.dir"

// Announce published artifact-set versions on etcd (true/false)
const ARTIFACTS_REGISTRY_ENABLED = "artifacts.registry.enabled"

// enable metrics system
const METRICS_ENABLED = "metrics.enabled"

// Port used by Prometheus server
const METRICS_PROMETHEUS_PORT = "metrics.prometheus.port"

// Prometheus IP address / hostname
const METRICS_PROMETHEUS_HOST = "metrics.prometheus.host"

// Enable the server-load retriever, which polls Prometheus for the node
// load used to enrich telemetry rows and the /status report
const METRICS_RETRIEVER_ENABLED = "metrics.retriever.enabled"

// Interval (in seconds) for the server-load retriever
const METRICS_RETRIEVER_INTERVAL = "metrics.retriever.interval"

// Enables tracing
const TRACING_ENABLED = "tracing.enabled"

// Custom output file for traces
const TRACING_OUTFILE = "tracing.outfile"

// Fraction of telemetry rows held out for evaluation
const TRAINING_TEST_FRACTION = "training.test.fraction"

// Number of trees in the offload classifier
const TRAINING_TREES = "training.trees"

// Maximum depth of each tree
const TRAINING_MAX_DEPTH = "training.depth"

// Seed for the training RNG; a fixed seed makes re-runs reproducible
const TRAINING_SEED = "training.seed"

// Reject training runs whose test ROC-AUC falls below training.gate.minauc (true/false)
const TRAINING_GATE_ENABLED = "training.gate.enabled"

// Minimum test ROC-AUC accepted when the gate is enabled
const TRAINING_GATE_MIN_AUC = "training.gate.minauc"
