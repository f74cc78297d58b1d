package valueobjects

import (
	"fmt"
	"strings"
)

// Operation is the asynchronous infrastructure action a queue entry carries.
type Operation string

const (
	OperationProvision Operation = "provision"
	OperationSuspend   Operation = "suspend"
	OperationResume    Operation = "resume"
	OperationTerminate Operation = "terminate"
)

var ValidOperations = map[Operation]bool{
	OperationProvision: true,
	OperationSuspend:   true,
	OperationResume:    true,
	OperationTerminate: true,
}

func ParseOperation(value string) (Operation, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	op := Operation(normalized)
	if !ValidOperations[op] {
		return "", fmt.Errorf("invalid queue operation: %s", value)
	}
	return op, nil
}

func (o Operation) String() string {
	return string(o)
}
