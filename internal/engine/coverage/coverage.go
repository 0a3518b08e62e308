package coverage

import (
	"encoding/json"
	"sync/atomic"
)

// Metrics counts what the engine looked at and what it had to skip, so
// a half-parsed repository is visible in the result instead of silently
// producing thin output. Counters only go up during a run; one Metrics
// value lives exactly as long as one analysis run.
type Metrics struct {
	FilesScanned         atomic.Int64
	ParseFailures        atomic.Int64
	GraphQLParseFailures atomic.Int64
	CodegenFilesDetected atomic.Int64
	CodegenFilesParsed   atomic.Int64
	CodegenExportsFound  atomic.Int64
	CombinedRegexSkipped atomic.Bool
}

// Snapshot is the plain-value form used for serialization and tests.
type Snapshot struct {
	FilesScanned         int64 `json:"filesScanned"`
	ParseFailures        int64 `json:"parseFailures"`
	GraphQLParseFailures int64 `json:"graphqlParseFailures"`
	CodegenFilesDetected int64 `json:"codegenFilesDetected"`
	CodegenFilesParsed   int64 `json:"codegenFilesParsed"`
	CodegenExportsFound  int64 `json:"codegenExportsFound"`
	CombinedRegexSkipped bool  `json:"combinedRegexSkipped"`
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:         m.FilesScanned.Load(),
		ParseFailures:        m.ParseFailures.Load(),
		GraphQLParseFailures: m.GraphQLParseFailures.Load(),
		CodegenFilesDetected: m.CodegenFilesDetected.Load(),
		CodegenFilesParsed:   m.CodegenFilesParsed.Load(),
		CodegenExportsFound:  m.CodegenExportsFound.Load(),
		CombinedRegexSkipped: m.CombinedRegexSkipped.Load(),
	}
}

func (m *Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}
