package config

// SampleConfig is written by "config init"
func SampleConfig() string {
	return `# NgramLens configuration
version: "1.0"

service:
  # Base URL of the n-gram analysis service
  endpoint: "http://localhost:8000"
  timeout: 120s
  # Retries apply to network failures only, never to error responses
  max_retries: 2
  retry_delay: 500ms

analysis:
  min_n: 1
  max_n: 3
  mode: "all"         # all | common
  sort: "asc"         # asc | desc
  include_all_common: false

output:
  default_format: "text"   # text | json | markdown | csv
  color_mode: "auto"       # auto | always | never
  verbose: false
  language: "ko"           # ko | en | zh
  directory: "."
  open_viewer: true
  export_format: "html"    # txt | html | docx | hwp
  highlight_format: "html" # txt | html | docx | hwp
  theme: "default"         # default | high-contrast (interactive mode)

notice:
  timeout: 5s

workflow:
  exclusive: false
`
}

// MinimalSampleConfig only points at the service
func MinimalSampleConfig() string {
	return `version: "1.0"
service:
  endpoint: "http://localhost:8000"
`
}
