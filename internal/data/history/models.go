package history

import "time"

// SchemaVersion is the current snapshot schema. Stored rows carry the
// version they were written with so older databases are rejected
// loudly instead of misread.
const SchemaVersion = 1

// RunSnapshot is one analysis run's aggregate numbers: how many
// operations the registry holds, how many of them have at least one
// consumer, and what the coverage counters saw.
type RunSnapshot struct {
	ProjectKey           string
	SchemaVersion        int
	RunID                string
	Timestamp            time.Time
	OperationCount       int
	UsedOperationCount   int
	UnusedOperationCount int
	UsageCount           int
	FilesScanned         int64
	ParseFailures        int64
	GraphQLParseFailures int64
	CodegenExportsFound  int64
}
